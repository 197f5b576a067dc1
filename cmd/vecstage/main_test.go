package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("alias -l works", func(t *testing.T) {
		err := newApp().Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestReadPages(t *testing.T) {
	writePages := func(content string) string {
		path := filepath.Join(t.TempDir(), "pages.jsonl")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("parses one page per line", func(t *testing.T) {
		pages, err := readPages(writePages(
			`{"url":"https://example.com/a","title":"A","text":"First page."}
{"url":"https://example.com/b","title":"B","raw_location":"raw/b.html","text":"Second page."}
`))
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, "https://example.com/a", pages[0].URL)
		assert.Equal(t, "Second page.", pages[1].Text)
		assert.Equal(t, "raw/b.html", pages[1].RawLocation)
	})

	t.Run("skips blank lines", func(t *testing.T) {
		pages, err := readPages(writePages(
			"{\"url\":\"https://example.com/a\",\"text\":\"One.\"}\n\n\n"))
		require.NoError(t, err)
		assert.Len(t, pages, 1)
	})

	t.Run("reports the broken line number", func(t *testing.T) {
		_, err := readPages(writePages(
			"{\"url\":\"https://example.com/a\",\"text\":\"One.\"}\nnot json\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readPages(filepath.Join(t.TempDir(), "absent.jsonl"))
		assert.Error(t, err)
	})
}
