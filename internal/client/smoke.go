package client

import (
	"context"
	"fmt"
	"io"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// SmokeOptions configures a single smoke run.
type SmokeOptions struct {
	Addr  string
	User  string
	Token string
	Room  string
	Text  string
}

// Smoke connects, joins Room, sends Text and waits for the server to echo it
// back. Every frame seen on the way is written to out.
func Smoke(ctx context.Context, opts SmokeOptions, out io.Writer) error {
	c, err := Dial(ctx, opts.Addr, proto.HelloData{User: opts.User, Token: opts.Token})
	if err != nil {
		return err
	}
	defer c.Close()

	// The first history frame confirms the handshake.
	if err := await(ctx, c, out, func(f Frame) (bool, error) {
		return f.Type == proto.OutboundTypeChatHistory, nil
	}); err != nil {
		return err
	}

	if opts.Room != "" {
		if err := c.Join(ctx, opts.Room); err != nil {
			return err
		}
	}
	if err := c.Say(ctx, opts.Room, opts.Text); err != nil {
		return err
	}

	return await(ctx, c, out, func(f Frame) (bool, error) {
		if f.Type != proto.OutboundTypeMessage {
			return false, nil
		}
		var m proto.EventMessage
		if err := f.Decode(&m); err != nil {
			return false, err
		}
		return m.Text == opts.Text, nil
	})
}

// await prints frames until match reports true. Error statuses end the wait.
func await(ctx context.Context, c *Client, out io.Writer, match func(Frame) (bool, error)) error {
	for {
		f, err := c.Next(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Fprintln(out, Format(f))

		if f.Type == proto.OutboundTypeStatus {
			var st proto.EventStatus
			if err := f.Decode(&st); err != nil {
				return err
			}
			if st.Code != "" {
				return fmt.Errorf("server refused: %s: %s", st.Code, st.Text)
			}
		}

		done, err := match(f)
		if err != nil || done {
			return err
		}
	}
}
