//go:build headless

package main

import (
	"context"
	"errors"
)

func runWindow(context.Context, config, *player) error {
	return errors.New("built without window support (headless tag)")
}
