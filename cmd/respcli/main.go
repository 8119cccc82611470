package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ananthvk/respkv/internal/client"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "respcli",
		Usage:     "send commands to a respserver",
		ArgsUsage: "[COMMAND [ARG ...]]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "server address",
				EnvVars: []string{"RESPKV_ADDR"},
				Value:   "127.0.0.1:6379",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "dial and round trip timeout",
				Value: 5 * time.Second,
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "(error) %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	conn, err := client.Dial(c.Context, c.String("addr"), c.Duration("timeout"))
	if err != nil {
		return err
	}
	defer conn.Close()

	if c.NArg() > 0 {
		reply, err := conn.Do(c.Args().Slice()...)
		if err != nil {
			return err
		}
		fmt.Println(client.Format(reply))
		return nil
	}
	return repl(conn, c.String("addr"), os.Stdin, os.Stdout)
}

// repl reads one command per line, arguments separated by spaces, until "exit" or EOF
func repl(conn *client.Client, addr string, in io.Reader, out io.Writer) error {
	prompt := addr + "> "
	fmt.Fprint(out, prompt)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			fmt.Fprint(out, prompt)
			continue
		}
		if strings.EqualFold(args[0], "exit") {
			return nil
		}
		reply, err := conn.Do(args...)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, client.Format(reply))
		if strings.EqualFold(args[0], "quit") {
			return nil
		}
		fmt.Fprint(out, prompt)
	}
	return scanner.Err()
}
