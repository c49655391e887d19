package common

import (
	"errors"
	"testing"
)

func TestAddStatusToCode(t *testing.T) {
	tests := []struct {
		status Status
		want   Code
	}{
		{EOK, OK},
		{EBADVERSION, ProtocolVersionMismatch},
		{EFENCED, LedgerFenced},
		{EUA, UnauthorizedAccess},
		{EREADONLY, WriteOnReadOnlyNode},
		{ENOLEDGER, WriteFailure},
		{ENOENTRY, WriteFailure},
		{EIO, WriteFailure},
		{EBADREQ, WriteFailure},
		{Status(999), WriteFailure},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := AddStatusToCode(tt.status); got != tt.want {
				t.Errorf("AddStatusToCode(%s) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestReadStatusToCode(t *testing.T) {
	tests := []struct {
		status Status
		want   Code
	}{
		{EOK, OK},
		{ENOENTRY, NoSuchEntry},
		{ENOLEDGER, NoSuchEntry},
		{EBADVERSION, ProtocolVersionMismatch},
		{EUA, UnauthorizedAccess},
		{EFENCED, ReadFailure},
		{EREADONLY, ReadFailure},
		{EIO, ReadFailure},
		{Status(-3), ReadFailure},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := ReadStatusToCode(tt.status); got != tt.want {
				t.Errorf("ReadStatusToCode(%s) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestCodeErr(t *testing.T) {
	if err := OK.Err(); err != nil {
		t.Fatalf("OK.Err() = %v, want nil", err)
	}

	err := LedgerFenced.Err()
	if err == nil {
		t.Fatal("LedgerFenced.Err() must not be nil")
	}
	if !errors.Is(err, LedgerFenced.Err()) {
		t.Error("errors.Is must match equal codes")
	}
	if errors.Is(err, NodeUnavailable.Err()) {
		t.Error("errors.Is must not match different codes")
	}

	var codeErr *CodeError
	if !errors.As(err, &codeErr) || codeErr.Code != LedgerFenced {
		t.Errorf("errors.As did not yield the code, got %v", codeErr)
	}

	if Code(42).String() != "Code(42)" {
		t.Errorf("unexpected name for unknown code: %s", Code(42))
	}
}
