package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nota/internal/buffer"
	"nota/internal/models"
)

func writeJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeLocalNoteLine(note models.LocalNote) error {
	return writePlain("local %d  %s  %s%s\n",
		note.ID, formatTime(note.CreatedTime), firstLine(note.Text), imageSuffix(len(note.Images)))
}

func writeNoteLine(note models.Note) error {
	return writePlain("%d  %s  %s%s\n",
		note.ID, formatTime(note.CreatedTime), firstLine(note.Text), imageSuffix(len(note.Images)))
}

func formatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}

func imageSuffix(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("  [%d image(s)]", n)
}

// readFiles loads image uploads from disk, inferring the media type from
// the extension.
func readFiles(paths []string) ([]buffer.File, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	files := make([]buffer.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		mediaType := mime.TypeByExtension(filepath.Ext(path))
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		files = append(files, buffer.File{
			Name:      filepath.Base(path),
			MediaType: mediaType,
			Data:      data,
		})
	}
	return files, nil
}
