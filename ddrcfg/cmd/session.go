package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ddrconfig/board"
	"github.com/sarchlab/ddrconfig/datarecording"
	"github.com/sarchlab/ddrconfig/ddr"
	"github.com/sarchlab/ddrconfig/ddr/hooking"
)

// session is one pipeline built for the board named on the command line.
type session struct {
	board    *board.Board
	pipeline *ddr.Pipeline
	recorder datarecording.DataRecorder
}

func openSession(cmd *cobra.Command, record string) (*session, error) {
	path, _ := cmd.Flags().GetString("board")

	b, err := board.Load(path)
	if err != nil {
		return nil, err
	}

	err = b.ApplyEnv(os.Getenv)
	if err != nil {
		return nil, err
	}

	s := &session{board: b}
	builder := b.Builder()

	if logger := verboseLogger(cmd); logger != nil {
		builder = builder.WithAdditionalHooks(hooking.NewLogHook(logger))
	}

	if record == "" {
		record = os.Getenv(board.EnvRecord)
	}

	if record != "" {
		s.recorder, err = datarecording.New(record)
		if err != nil {
			return nil, err
		}

		builder = builder.WithAdditionalHooks(
			datarecording.NewRunRecorder(s.recorder))
	}

	s.pipeline = builder.Build()

	return s, nil
}

func (s *session) close() error {
	if s.recorder == nil {
		return nil
	}

	return s.recorder.Close()
}

// closeInto closes the session and joins the close error into *err.
func (s *session) closeInto(err *error) {
	*err = errors.Join(*err, s.close())
}
