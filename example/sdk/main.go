package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/beanbocchi/blobfs/pkg/sdk"
)

func main() {
	ctx := context.Background()
	client := sdk.NewClient("http://localhost:8080/api/v1")

	// Push
	content := bytes.NewBufferString("This is file content")
	resp, err := client.Push(ctx, sdk.PushRequest{
		Path:    "inbox/hello.txt",
		Content: content,
		Size:    int64(content.Len()),
	})
	if err != nil {
		fmt.Printf("Upload failed: %v\n", err)
		return
	}
	fmt.Printf("Upload successful: %s (%s)\n", resp.Key, resp.Hash)

	// Move
	if err := client.Move(ctx, sdk.MoveRequest{Source: resp.Key, DestDir: "archive"}); err != nil {
		fmt.Printf("Move failed: %v\n", err)
		return
	}

	// Pull
	output, err := os.Create("hello.txt")
	if err != nil {
		fmt.Printf("Failed to create file: %v\n", err)
		return
	}
	defer output.Close()

	if _, err := client.Pull(ctx, sdk.PullRequest{Path: "archive/hello.txt", Hash: resp.Hash}, output); err != nil {
		fmt.Printf("Download failed: %v\n", err)
		return
	}

	fmt.Println("Download successful")
}
