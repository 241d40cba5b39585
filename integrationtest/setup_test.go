package integrationtest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/randalmurphal/relstage/cli"
	"github.com/randalmurphal/relstage/config"
	"github.com/randalmurphal/relstage/notify"
	"github.com/randalmurphal/relstage/testutil"
)

// clearEnv blanks every variable the resolver and Load consult.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range config.AllKeys() {
		t.Setenv(config.EnvPrefix+strings.ToUpper(key), "")
	}
	for _, name := range []string{"PUBLIC_ARTIFACTS_TOKEN", "GITHUB_TOKEN", "GITLAB_TOKEN", "GITHUB_SHA", "CI_COMMIT_SHA"} {
		t.Setenv(name, "")
	}
}

// localResolver skips the user's global config file.
func localResolver(startDir string) *config.Resolver {
	cfg := config.DefaultResolverConfig(startDir)
	cfg.GlobalConfigDir = ""
	cfg.ErrWriter = &bytes.Buffer{}
	return config.NewResolver(cfg)
}

// releaseRepo is a git checkout of a package with a GitHub origin.
type releaseRepo struct {
	Dir string
	SHA string
}

func setupReleaseRepo(t *testing.T, name, version string, files map[string]string) releaseRepo {
	t.Helper()

	all := map[string]string{"package.json": string(testutil.PackageJSON(t, name, version))}
	for path, content := range files {
		all[path] = content
	}
	dir := testutil.SetupTestRepoWithFiles(t, all)
	testutil.AddRemote(t, dir, "origin", "https://github.com/acme/widgets.git")

	return releaseRepo{Dir: dir, SHA: testutil.HeadSHA(t, dir)}
}

type cliRun struct {
	Code     int
	Stdout   string
	Stderr   string
	Recorder *notify.Recorder
}

func runCLI(t *testing.T, opts cli.Options, args ...string) cliRun {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rec := notify.NewRecorder()
	opts.Stdout, opts.Stderr, opts.Notifier = &stdout, &stderr, rec
	if opts.Resolver == nil {
		opts.Resolver = localResolver
	}

	code := cli.Execute(testutil.TestContext(t), args, opts)
	return cliRun{Code: code, Stdout: stdout.String(), Stderr: stderr.String(), Recorder: rec}
}
