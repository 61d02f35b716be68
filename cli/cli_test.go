package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgepick/edgepick/fetch"
	"github.com/edgepick/edgepick/region"
	"github.com/edgepick/edgepick/selector"
)

const reportCSV = "IP 地址,已发送,已接收,丢包率,平均延迟,下载速度 (MB/s)\n" +
	"1.1.1.1,4,4,0,5.0,0\n" +
	"104.16.0.1,4,4,0,3.0,0\n" +
	"8.8.8.8,4,4,0,1.0,0\n" +
	"141.101.64.1,4,4,0,abc,0\n"

func parse(t *testing.T, args ...string) (*Cmd, *kong.Context) {
	t.Helper()
	var cmd Cmd
	parser, err := kong.New(&cmd, Vars())
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cmd, kctx
}

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result.csv")
	require.NoError(t, os.WriteFile(path, []byte(reportCSV), 0o644))
	return path
}

func TestSelectionFlagDefaults(t *testing.T) {
	cmd, kctx := parse(t, "select")
	assert.Equal(t, "select", kctx.Command())

	cfg, err := cmd.Select.Config()
	require.NoError(t, err)
	assert.Equal(t, selector.DefaultConfig(), cfg)
	assert.Equal(t, []string{"result.csv"}, cmd.Select.Input)
	assert.Equal(t, "best_ip.txt", cmd.Select.Output)
}

func TestSelectionFlagsFromEnv(t *testing.T) {
	t.Setenv("PRIORITY_REGIONS", "jp, kr")
	t.Setenv("MAX_PER_REGION", "3")
	t.Setenv("MAX_TOTAL", "20")

	cmd, _ := parse(t, "select")
	cfg, err := cmd.Select.Config()
	require.NoError(t, err)
	assert.Equal(t, []region.Code{region.JP, region.KR}, cfg.PriorityRegions)
	assert.Equal(t, 3, cfg.MaxPerRegion)
	assert.Equal(t, 20, cfg.MaxTotal)

	// flags win over the environment
	cmd, _ = parse(t, "select", "--max-total", "5")
	cfg, err = cmd.Select.Config()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxTotal)
}

func TestSelectionFlagsInvalid(t *testing.T) {
	_, err := SelectionFlags{PriorityRegions: "US,DE", MaxTotal: 1}.Config()
	assert.ErrorIs(t, err, region.ErrUnknownCode)

	_, err = SelectionFlags{PriorityRegions: "US", MaxTotal: -1}.Config()
	assert.ErrorIs(t, err, selector.ErrInvalidConfig)
}

func TestSelectRun(t *testing.T) {
	input := writeReport(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "best_ip.txt")
	metrics := filepath.Join(dir, "edgepick.prom")

	cmd, _ := parse(t, "select",
		"-i", input, "-o", output,
		"--priority-regions", "US", "--max-total", "2",
		"--metrics-file", metrics,
	)

	var buf bytes.Buffer
	cmd.Select.out = &buf
	require.NoError(t, cmd.Select.Run(context.Background()))

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "104.16.0.1\n8.8.8.8\n", string(b))

	var sum selectSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &sum))
	assert.Len(t, sum.RunID, 26)
	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 4, sum.Records)
	assert.Equal(t, 1, sum.Malformed)
	assert.Equal(t, []region.Code{region.US}, sum.PriorityRegions)
	assert.Equal(t, map[string]int{"priority": 1, "backfill": 1}, sum.Passes)
	assert.Equal(t, output, sum.BestIPTxt)

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `edgepick_selected_addresses{pass="priority",region="US"} 1`)
	assert.Contains(t, string(prom), "edgepick_build_info")
}

func TestSelectStdout(t *testing.T) {
	input := writeReport(t)
	cmd, _ := parse(t, "select", "-i", input, "-o", "-", "--max-total", "1")

	var buf bytes.Buffer
	cmd.Select.out = &buf
	require.NoError(t, cmd.Select.Run(context.Background()))
	assert.Equal(t, "104.16.0.1\n", buf.String())
}

func TestSelectMissingReport(t *testing.T) {
	cmd, _ := parse(t, "select",
		"-i", filepath.Join(t.TempDir(), "missing.csv"),
		"-o", filepath.Join(t.TempDir(), "best_ip.txt"))
	cmd.Select.out = &bytes.Buffer{}

	err := cmd.Select.Run(context.Background())
	require.Error(t, err)

	var ee *ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.ExitCode())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClassify(t *testing.T) {
	cmd, _ := parse(t, "classify", "162.159.1.1", "8.8.8.8", "garbage")

	var buf bytes.Buffer
	cmd.Classify.out = &buf
	require.NoError(t, cmd.Classify.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"162.159.1.1", "US", "162.158.0.0/15"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"8.8.8.8", "Other", "-"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"garbage", "Other", "-"}, strings.Fields(lines[2]))
}

func TestStats(t *testing.T) {
	input := writeReport(t)
	list := filepath.Join(t.TempDir(), "best_ip.txt")
	require.NoError(t, os.WriteFile(list, []byte("104.16.0.1\n9.9.9.9\n"), 0o644))

	cmd, _ := parse(t, "stats", "-i", input, "-s", list)

	var buf bytes.Buffer
	cmd.Stats.out = &buf
	require.NoError(t, cmd.Stats.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "Report: 4 records, 1 malformed latencies, 0 skipped rows")
	assert.Contains(t, out, "Shortlist "+list+": 2 addresses")
	assert.Regexp(t, `104\.16\.0\.1\s+US\s+#2\s+3\.00ms`, out)
	assert.Regexp(t, `9\.9\.9\.9\s+Other\s+not in report`, out)
}

func TestFetchDefaults(t *testing.T) {
	cmd, _ := parse(t, "fetch")
	assert.Equal(t, fetch.DefaultURL, cmd.Fetch.URL)
	assert.Equal(t, "ip.txt", cmd.Fetch.Dst)
	assert.Equal(t, "any", cmd.Fetch.IPVersion)

	_, err := kong.Must(&Cmd{}, Vars()).Parse([]string{"fetch", "--ip-version", "5"})
	assert.Error(t, err)
}
