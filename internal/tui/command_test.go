package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"q", Command{Name: CmdQuit}},
		{"quit", Command{Name: CmdQuit}},
		{":help", Command{Name: CmdHelp}},
		{"h", Command{Name: CmdHelp}},
		{"open Ana Souza", Command{Name: CmdOpen, Args: "Ana Souza"}},
		{"  OPEN   5511  ", Command{Name: CmdOpen, Args: "5511"}},
		{"chat bruno", Command{Name: CmdOpen, Args: "bruno"}},
		{"refresh", Command{Name: CmdRefresh}},
		{"older", Command{Name: CmdOlder}},
		{"bogus arg", Command{Name: "bogus", Args: "arg"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.in); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
