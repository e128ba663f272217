package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/me/neurolens/internal/session"
	"github.com/me/neurolens/pkg/model"
)

// streamEvent is one progress stream message, from SSE or WebSocket.
type streamEvent struct {
	Type string
	model.ProgressEvent
	Run     *model.Run
	Results *assetView
	Err     *model.APIError
}

func newProcessCmd() *cobra.Command {
	var useWS bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Upload an EEG file and follow its processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			run, err := client.Upload(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Uploaded file: %s (%s)\n", run.FileName, run.ID)
			if client.Session != "" {
				// Uploads may have created the session; keep it for status.
				saveCredentials(credentials{Server: client.BaseURL, Session: client.Session})
			}

			follow := client.FollowSSE
			if useWS {
				follow = client.FollowWS
			}
			p := newProgressPrinter(out)
			var last streamEvent
			err = follow(ctx, run.ID, func(ev streamEvent) {
				if ev.Type == "progress" {
					p.update(ev.Text)
				}
				last = ev
			})
			p.done()
			if err != nil {
				return err
			}

			switch last.Type {
			case "complete":
				fmt.Fprintln(out, last.Text)
				if last.Results != nil {
					printBanners(out, last.Results.Banners)
					for _, img := range last.Results.Images {
						fmt.Fprintf(out, "  image: %s (%s)\n", img.Path, img.Caption)
					}
					if last.Results.Workbook != nil {
						fmt.Fprintf(out, "  workbook: %s\n", last.Results.WorkbookName)
						printWorkbook(out, last.Results.Workbook)
					}
				}
				return nil
			case "error":
				if last.Err != nil {
					return last.Err
				}
			}
			return fmt.Errorf("progress stream for %s ended early", run.ID)
		},
	}

	cmd.Flags().BoolVar(&useWS, "ws", false, "Follow progress over WebSocket instead of Server-Sent Events")
	return cmd
}

// progressPrinter rewrites one line on a terminal and prints one line per
// update elsewhere.
type progressPrinter struct {
	w     io.Writer
	tty   bool
	wrote bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &progressPrinter{w: w, tty: tty}
}

func (p *progressPrinter) update(text string) {
	p.wrote = true
	if p.tty {
		fmt.Fprintf(p.w, "\r%s", text)
		return
	}
	fmt.Fprintln(p.w, text)
}

func (p *progressPrinter) done() {
	if p.tty && p.wrote {
		fmt.Fprintln(p.w)
	}
}

// FollowSSE starts processing of run id and reads its Server-Sent Events
// until the server closes the stream.
func (c *Client) FollowSSE(ctx context.Context, id string, fn func(streamEvent)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/sse/runs/"+id, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiResp apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err == nil && apiResp.Error != nil {
			return apiResp.Error
		}
		return fmt.Errorf("progress stream: status %d", resp.StatusCode)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && event != "":
			ev, err := decodeSSE(event, []byte(data))
			if err != nil {
				return err
			}
			fn(ev)
			event, data = "", ""
		}
	}
	return sc.Err()
}

func decodeSSE(event string, data []byte) (streamEvent, error) {
	ev := streamEvent{Type: event}
	var err error
	switch event {
	case "progress":
		err = json.Unmarshal(data, &ev.ProgressEvent)
	case "complete":
		var c struct {
			Run     *model.Run  `json:"run"`
			Text    string      `json:"text"`
			Results *assetView `json:"results"`
		}
		err = json.Unmarshal(data, &c)
		ev.Run, ev.Text, ev.Results = c.Run, c.Text, c.Results
	case "error":
		ev.Err = &model.APIError{}
		err = json.Unmarshal(data, ev.Err)
	case "init":
		ev.Run = &model.Run{}
		err = json.Unmarshal(data, ev.Run)
	}
	if err != nil {
		return ev, fmt.Errorf("parse %s event: %w", event, err)
	}
	return ev, nil
}

// FollowWS starts processing of run id over a WebSocket and reads
// messages until the server closes the socket.
func (c *Client) FollowWS(ctx context.Context, id string, fn func(streamEvent)) error {
	url := "ws" + strings.TrimPrefix(c.BaseURL, "http") + "/api/v1/ws/runs/" + id
	header := http.Header{}
	if c.Session != "" {
		header.Set("Cookie", (&http.Cookie{Name: session.CookieName, Value: c.Session}).String())
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket: %w", err)
	}
	defer conn.Close()

	for {
		var msg struct {
			Type string `json:"type"`
			model.ProgressEvent
			Run     *model.Run      `json:"run"`
			Results *assetView     `json:"results"`
			Error   *model.APIError `json:"error"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		fn(streamEvent{Type: msg.Type, ProgressEvent: msg.ProgressEvent, Run: msg.Run, Results: msg.Results, Err: msg.Error})
	}
}
