package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const baseURL = "http://localhost:8080/api/v1"

func main() {
	fmt.Println("=== Push Example ===")
	if err := pushFile("example/main.go", "examples/main.go"); err != nil {
		fmt.Printf("Push error: %v\n", err)
		return
	}
	fmt.Println("Push successful!")

	fmt.Println("\n=== Pull Example ===")
	if err := pullFile("examples/main.go", "downloaded_main.go"); err != nil {
		fmt.Printf("Pull error: %v\n", err)
		return
	}
	fmt.Println("Pull successful!")
}

func pushFile(filePath, remotePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	req, err := http.NewRequest(http.MethodPut, baseURL+"/files/"+strings.TrimPrefix(remotePath, "/"), file)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/x-go")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\nResponse: %s\n", resp.StatusCode, string(body))

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

func pullFile(remotePath, outputPath string) error {
	resp, err := http.Get(baseURL + "/files/" + strings.TrimPrefix(remotePath, "/"))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	written, err := io.Copy(outFile, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Printf("Downloaded %d bytes to %s\n", written, outputPath)
	return nil
}
