package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunUsage(t *testing.T) {
	cli := &commandLine{}

	assert.Equal(t, errHelp, cli.run([]string{"eaduck"}))
	assert.Equal(t, errHelp, cli.run([]string{"eaduck", "lmao"}))
}

func TestRunLoginRequiresEmail(t *testing.T) {
	cli := &commandLine{}

	assert.Equal(t, errHelp, cli.run([]string{"eaduck", "login"}))
}

func TestRunLoginRejectsEmptyPassword(t *testing.T) {
	prev := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }
	defer func() { readPasswordFunc = prev }()

	cli := &commandLine{}
	assert.Equal(t, errHelp, cli.run([]string{"eaduck", "login", "-email", "a@b.test"}))
}
