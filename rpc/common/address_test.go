package common

import "testing"

func TestParseBookieAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    BookieAddress
		wantErr bool
	}{
		{in: "localhost:3181", want: BookieAddress{Host: "localhost", Port: 3181}},
		{in: "127.0.0.1:0", want: BookieAddress{Host: "127.0.0.1", Port: 0}},
		{in: "[::1]:3181", want: BookieAddress{Host: "::1", Port: 3181}},
		{in: "/tmp/bookie.sock", want: BookieAddress{Host: "/tmp/bookie.sock"}},
		{in: "unix:///tmp/bookie.sock", want: BookieAddress{Host: "/tmp/bookie.sock"}},
		{in: "localhost", wantErr: true},
		{in: "localhost:http", wantErr: true},
		{in: "localhost:70000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBookieAddress(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBookieAddressNames(t *testing.T) {
	addr := BookieAddress{Host: "bookie-1", Port: 3181}
	if addr.String() != "bookie-1:3181" {
		t.Errorf("String() = %s", addr.String())
	}
	if addr.ScopeName() != "bookie-1_3181" {
		t.Errorf("ScopeName() = %s", addr.ScopeName())
	}

	sock := BookieAddress{Host: "/tmp/b.sock"}
	if !sock.IsUnix() || sock.String() != "/tmp/b.sock" {
		t.Errorf("unexpected unix address rendering: %s", sock.String())
	}
}
