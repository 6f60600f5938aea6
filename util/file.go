package util

import (
	"fmt"
	"os"
	"path"
)

// WriteToFile writes the given strings to savePath separated by new
// lines, replacing any previous content and creating parent directories.
func WriteToFile(savePath string, content ...string) error {
	singleString := ""
	for _, c := range content {
		singleString = fmt.Sprintf("%s%s\n", singleString, c)
	}
	if err := os.MkdirAll(path.Dir(savePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(savePath, []byte(singleString), 0644)
}

// AppendToFile appends the given strings to savePath, one per line,
// creating the file and its parent directories if needed.
func AppendToFile(savePath string, content ...string) error {
	if err := os.MkdirAll(path.Dir(savePath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, s := range content {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return nil
}
