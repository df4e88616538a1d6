package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/vango-dev/batchstore/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultServer = "http://localhost:8080"

// apiClient talks to a running batchstore server.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// do sends a request and returns the response body. Non-2xx responses are
// turned into E061 errors carrying the server's message.
func (c *apiClient) do(method, path string, query url.Values, body []byte) ([]byte, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return nil, errors.New("E061").Wrap(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.New("E061").Wrap(err).
			WithSuggestion("Start the server with 'batchstore serve' or pass --server")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New("E061").Wrap(err)
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		detail := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			detail = e.Error
		}
		return nil, errors.Newf("E061", "%s %s returned %d", method, path, resp.StatusCode).
			WithDetail(detail)
	}
	return data, nil
}

func addServerFlag(cmd *cobra.Command, server *string) {
	cmd.Flags().StringVarP(server, "server", "S", defaultServer, "URL of the batchstore server")
}

// printJSON pretty-prints a JSON document.
func printJSON(w io.Writer, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		_, err := w.Write(data)
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func dispatchCmd() *cobra.Command {
	var (
		server  string
		channel string
	)

	cmd := &cobra.Command{
		Use:   "dispatch <message>",
		Short: "Dispatch a message to a running server",
		Long: `Dispatch a wire message to a running server.

The message is a JSON action, an array of messages, or a BATCH envelope.
Use "-" to read it from stdin.

Examples:
  batchstore dispatch '{"type":"ADD_TODO","text":"Hello"}'
  batchstore dispatch '[{"type":"ADD_TODO","text":"a"},{"type":"ADD_TODO","text":"b"}]'
  batchstore dispatch --channel=slow '{"type":"ADD_TODO","text":"later"}'
  echo '{"kind":"BATCH","channel":"slow","payload":[]}' | batchstore dispatch -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := []byte(args[0])
			if args[0] == "-" {
				var err error
				body, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			query := url.Values{}
			if channel != "" {
				query.Set("channel", channel)
			}
			data, err := newAPIClient(server).do(http.MethodPost, "/dispatch", query, body)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}

	addServerFlag(cmd, &server)
	cmd.Flags().StringVar(&channel, "channel", "", "Channel to dispatch through")

	return cmd
}

func stateCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the current state of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient(server).do(http.MethodGet, "/state", nil, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}

	addServerFlag(cmd, &server)
	return cmd
}

func queueCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect, flush or clear channel queues",
	}
	cmd.PersistentFlags().StringVarP(&server, "server", "S", defaultServer, "URL of the batchstore server")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <channel>",
		Short: "Print the pending messages of a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient(server).do(http.MethodGet, "/queue/"+url.PathEscape(args[0]), nil, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "flush <channel>",
		Short: "Deliver a channel's queue now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient(server).do(http.MethodPost, "/queue/"+url.PathEscape(args[0])+"/flush", nil, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear [channel]",
		Short: "Discard pending messages of one channel, or of all channels",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/queue"
			target := "all channels"
			if len(args) == 1 {
				path += "/" + url.PathEscape(args[0])
				target = args[0]
			}
			if _, err := newAPIClient(server).do(http.MethodDelete, path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", target)
			return nil
		},
	})

	return cmd
}
