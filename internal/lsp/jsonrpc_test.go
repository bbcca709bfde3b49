package lsp

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestJSONRPCFramingMultipleMessages(t *testing.T) {
	var buf bytes.Buffer
	msg1 := []byte(`{"jsonrpc":"2.0","method":"one"}`)
	msg2 := []byte(`{"jsonrpc":"2.0","method":"two","params":{"text":"naïve"}}`)

	if err := writeMessage(&buf, msg1); err != nil {
		t.Fatalf("write message 1: %v", err)
	}
	if err := writeMessage(&buf, msg2); err != nil {
		t.Fatalf("write message 2: %v", err)
	}

	reader := bufio.NewReader(bytes.NewReader(buf.Bytes()))
	got1, err := readMessage(reader)
	if err != nil {
		t.Fatalf("read message 1: %v", err)
	}
	got2, err := readMessage(reader)
	if err != nil {
		t.Fatalf("read message 2: %v", err)
	}

	if string(got1) != string(msg1) {
		t.Fatalf("unexpected message 1: %s", string(got1))
	}
	if string(got2) != string(msg2) {
		t.Fatalf("unexpected message 2: %s", string(got2))
	}
}

func TestJSONRPCHeaderErrors(t *testing.T) {
	cases := map[string]string{
		"missing":  "Content-Type: application/json\r\n\r\n{}",
		"invalid":  "Content-Length: abc\r\n\r\n{}",
		"negative": "Content-Length: -1\r\n\r\n{}",
	}
	for name, raw := range cases {
		_, err := readMessage(bufio.NewReader(strings.NewReader(raw)))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if name == "missing" && !errors.Is(err, errMissingLength) {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
	}
}
