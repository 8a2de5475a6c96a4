package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrymomot/cachekeeper/pkg/basicauth"
)

// hashPassword hashes -password, or the first line of stdin when the flag is empty.
func hashPassword(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(out)
	password := fs.String("password", "", "password to hash, read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	hash, err := basicauth.HashPassword(*password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
