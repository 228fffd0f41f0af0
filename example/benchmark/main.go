package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/beanbocchi/blobfs/internal/client/objectstore/memory"
	"github.com/beanbocchi/blobfs/internal/filesystem"
	"github.com/beanbocchi/blobfs/internal/utils/blake3"
)

var chunkSizes = []string{"256KiB", "1MiB", "5MiB", "16MiB"}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./example/benchmark <filename>")
		fmt.Println("Example: go run ./example/benchmark /path/to/largefile.bin")
		os.Exit(1)
	}

	filename := os.Args[1]
	info, err := os.Stat(filename)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fileSize := info.Size()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("Chunked upload benchmark (in-memory store)")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Size: %s (%d bytes)\n", humanize.IBytes(uint64(fileSize)), fileSize)
	fmt.Println()

	fmt.Printf("%-10s %8s %15s %15s %15s\n", "Chunk", "Parts", "Write", "Read", "Throughput")
	fmt.Println(strings.Repeat("-", 70))

	want, err := hashFile(filename)
	if err != nil {
		fmt.Printf("Error hashing file: %v\n", err)
		os.Exit(1)
	}

	for _, size := range chunkSizes {
		chunk, err := humanize.ParseBytes(size)
		if err != nil {
			panic(err)
		}
		if err := run(filename, int(chunk), fileSize, want); err != nil {
			fmt.Printf("%-10s error: %v\n", size, err)
			os.Exit(1)
		}
	}
}

func run(filename string, chunk int, fileSize int64, want string) error {
	ctx := context.Background()
	fsys, err := filesystem.New(filesystem.Config{
		Store:     memory.NewStore(memory.Config{}),
		ChunkSize: chunk,
	})
	if err != nil {
		return err
	}

	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	p := filesystem.NewPath("bench", "payload.bin")
	start := time.Now()
	w := fsys.OutputStream(ctx, p, "application/octet-stream")
	if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	writeDur := time.Since(start)

	start = time.Now()
	r, err := fsys.Open(ctx, p)
	if err != nil {
		return err
	}
	got, err := blake3.Compute(r)
	r.Close()
	if err != nil {
		return err
	}
	readDur := time.Since(start)

	if got != want {
		return fmt.Errorf("hash mismatch: %s != %s", got, want)
	}

	throughput := float64(fileSize) / writeDur.Seconds()
	fmt.Printf("%-10s %8d %15s %15s %12s/s\n",
		humanize.IBytes(uint64(chunk)),
		len(w.Parts()),
		writeDur.Round(time.Microsecond),
		readDur.Round(time.Microsecond),
		humanize.IBytes(uint64(throughput)),
	)
	return nil
}

func hashFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return blake3.Compute(file)
}
