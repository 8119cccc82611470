package internal

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ananthvk/respkv/internal/client"
	"github.com/ananthvk/respkv/internal/resp"
)

func int32ToBytes(n int32) string {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(n))
	return string(buf)
}

func TestConcurrentClientsWithBinaryValues(t *testing.T) {
	addr, _ := startServer(t, testConfig())

	const workers = 8
	const writesPerWorker = 200

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := client.Dial(context.Background(), addr, 5*time.Second)
			if err != nil {
				errs <- err
				return
			}
			defer c.Close()

			key := fmt.Sprintf("counter_%d", w)
			for i := range writesPerWorker {
				// Values are raw little-endian ints, so they regularly contain \r and \n bytes
				value := int32ToBytes(int32(i*workers + w))
				if _, err := c.Do("SET", key, value); err != nil {
					errs <- err
					return
				}
				if _, err := c.Do("SET", "shared", value); err != nil {
					errs <- err
					return
				}
				reply, err := c.Do("GET", key)
				if err != nil {
					errs <- err
					return
				}
				if string(reply.Buffer) != value {
					errs <- fmt.Errorf("%s: read %q after writing %q", key, reply.Buffer, value)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	// Every worker's last write survives, and the shared key holds some worker's value
	c, err := client.Dial(context.Background(), addr, 5*time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()
	for w := range workers {
		reply, err := c.Do("GET", fmt.Sprintf("counter_%d", w))
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		want := int32ToBytes(int32((writesPerWorker-1)*workers + w))
		if string(reply.Buffer) != want {
			t.Errorf("counter_%d = %q, want %q", w, reply.Buffer, want)
		}
	}
	reply, err := c.Do("GET", "shared")
	if err != nil || reply.Type != resp.ValueTypeString || len(reply.Buffer) != 4 {
		t.Errorf("shared = %+v, %v", reply, err)
	}
	reply, err = c.Do("DBSIZE")
	if err != nil || reply.Integer != workers+1 {
		t.Errorf("DBSIZE = %+v, %v, want %d", reply, err, workers+1)
	}
}
