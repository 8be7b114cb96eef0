package utils

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user cancels a prompt
var ErrAborted = errors.New("aborted")

// SelectPrompt runs prompt and returns the selected item
func SelectPrompt(prompt *promptui.Select) (string, error) {
	_, res, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return res, nil
}
