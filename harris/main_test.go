//go:build opencv

package main

import (
	"bytes"
	"flag"
	"testing"

	"go.viam.com/test"
)

func TestUsageListsKeysAndFlags(t *testing.T) {
	var buf bytes.Buffer
	flag.CommandLine.SetOutput(&buf)
	defer flag.CommandLine.SetOutput(nil)

	usage()
	out := buf.String()
	test.That(t, out, test.ShouldContainSubstring, "harris - Harris corner detection")
	test.That(t, out, test.ShouldContainSubstring, "snapshot=p")
	test.That(t, out, test.ShouldContainSubstring, "-threshold")
	test.That(t, out, test.ShouldContainSubstring, "-block-size")
}
