package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/0xADE/ade-run/internal/entry"
)

func setenv(key, value string) {
	old, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func unsetenv(key string) {
	old, had := os.LookupEnv(key)
	Expect(os.Unsetenv(key)).To(Succeed())
	DeferCleanup(func() {
		if had {
			os.Setenv(key, old)
		}
	})
}

const modesYAML = `modes:
  - name: files
    source: fd . /tmp
    target: xdg-open "%"
  - name: ssh
    source: cat hosts
    target: foot ssh %
terminal: foot
`

var _ = Describe("Load", func() {
	var (
		tmpDir    string
		modesFile string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "ade-config-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, tmpDir)

		modesFile = filepath.Join(tmpDir, "run.yaml")
		setenv("ADE_RUN_CONFIG", modesFile)
		setenv("ADE_RUN_DB", filepath.Join(tmpDir, "run.db"))
		setenv("ADE_RUN_SOCK", filepath.Join(tmpDir, "run.sock"))
		setenv("ADE_RUN_APPS_DIRS", "/opt/apps::"+tmpDir)
		unsetenv("ADE_RUN_EXIT_AFTER_LAUNCH")
		unsetenv("ADE_DEFAULT_TERM")
		unsetenv("ADE_RUN_EMPTY_LIMIT")
		unsetenv("ADE_RUN_CUSTOM_LIMIT")
	})

	Context("when the modes file does not exist", func() {
		It("should load without custom modes", func() {
			cfg, err := Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Modes).To(BeEmpty())
			Expect(cfg.ModeList()).To(Equal([]entry.Mode{entry.Desktop()}))
		})

		It("should use the environment and defaults", func() {
			cfg, err := Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ModesFile).To(Equal(modesFile))
			Expect(cfg.DBPath).To(Equal(filepath.Join(tmpDir, "run.db")))
			Expect(cfg.UnixSocket).To(Equal(filepath.Join(tmpDir, "run.sock")))
			Expect(cfg.AppsDirs).To(Equal([]string{"/opt/apps", tmpDir}))
			Expect(cfg.ExitAfterLaunch).To(BeTrue())
			Expect(cfg.EmptyLimit).To(Equal(50))
			Expect(cfg.CustomLimit).To(Equal(50))
			Expect(cfg.Terminal).To(Equal("xterm"))
		})
	})

	Context("when the modes file declares modes", func() {
		BeforeEach(func() {
			Expect(os.WriteFile(modesFile, []byte(modesYAML), 0600)).To(Succeed())
		})

		It("should keep the file order after the desktop mode", func() {
			cfg, err := Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ModeList()).To(Equal([]entry.Mode{
				entry.Desktop(),
				entry.Custom("files"),
				entry.Custom("ssh"),
			}))
		})

		It("should look modes up by name", func() {
			cfg, err := Load()
			Expect(err).NotTo(HaveOccurred())

			m, ok := cfg.Mode("files")
			Expect(ok).To(BeTrue())
			Expect(m.Source).To(Equal("fd . /tmp"))
			Expect(m.Target).To(Equal(`xdg-open "%"`))

			_, ok = cfg.Mode("nope")
			Expect(ok).To(BeFalse())
		})

		It("should take the terminal from the file", func() {
			cfg, err := Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Terminal).To(Equal("foot"))
		})
	})

	Context("when the exit policy is configured", func() {
		BeforeEach(func() {
			Expect(os.WriteFile(modesFile, []byte("exit_after_launch: false\n"), 0600)).To(Succeed())
		})

		It("should read it from the file", func() {
			cfg, err := Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ExitAfterLaunch).To(BeFalse())
		})

		It("should let the environment win", func() {
			setenv("ADE_RUN_EXIT_AFTER_LAUNCH", "true")
			cfg, err := Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ExitAfterLaunch).To(BeTrue())
		})
	})

	DescribeTable("rejecting invalid mode files",
		func(content string) {
			Expect(os.WriteFile(modesFile, []byte(content), 0600)).To(Succeed())
			_, err := Load()
			Expect(err).To(MatchError(ErrInvalid))
		},
		Entry("unnamed mode", "modes:\n  - source: ls\n    target: echo %\n"),
		Entry("reserved name", "modes:\n  - name: Drun\n    source: ls\n    target: echo %\n"),
		Entry("duplicate name", "modes:\n  - name: a\n    source: ls\n    target: echo %\n  - name: a\n    source: ls\n    target: echo %\n"),
		Entry("missing source", "modes:\n  - name: a\n    target: echo %\n"),
		Entry("missing placeholder", "modes:\n  - name: a\n    source: ls\n    target: echo\n"),
		Entry("broken yaml", "modes: [\n"),
	)

	It("should reject a non-positive limit", func() {
		setenv("ADE_RUN_EMPTY_LIMIT", "0")
		_, err := Load()
		Expect(err).To(MatchError(ErrInvalid))
	})
})

var _ = Describe("Watcher", func() {
	It("should deliver a reloaded config when the modes file is written", func() {
		tmpDir, err := os.MkdirTemp("", "ade-config-watch-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, tmpDir)

		modesFile := filepath.Join(tmpDir, "conf", "run.yaml")
		setenv("ADE_RUN_CONFIG", modesFile)
		setenv("ADE_RUN_DB", filepath.Join(tmpDir, "run.db"))
		setenv("ADE_RUN_SOCK", filepath.Join(tmpDir, "run.sock"))

		cfg, err := Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Modes).To(BeEmpty())

		w, err := Watch(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)
		go w.Run(ctx)

		Expect(os.WriteFile(modesFile, []byte(modesYAML), 0600)).To(Succeed())

		// The file may be seen empty right after creation
		modes := 0
		Eventually(func() int {
			select {
			case reloaded := <-w.Updates():
				if reloaded != nil {
					modes = len(reloaded.Modes)
				}
			default:
			}
			return modes
		}, 5*time.Second).Should(Equal(2))
	})
})
