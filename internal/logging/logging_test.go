package logging

import (
	"log/slog"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Setup", func() {
	It("should write to the log file at the configured level", func() {
		tmpDir, err := os.MkdirTemp("", "ade-logging-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, tmpDir)

		path := filepath.Join(tmpDir, "logs", "run.log")
		logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
		Expect(err).NotTo(HaveOccurred())

		logger.Info("hidden")
		logger.Warn("shown", "mode", "files")
		cleanup()

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("msg=shown mode=files"))
		Expect(string(data)).NotTo(ContainSubstring("hidden"))
	})

	It("should work without any output", func() {
		logger, cleanup, err := Setup(Config{})
		Expect(err).NotTo(HaveOccurred())
		logger.Info("nowhere")
		cleanup()
	})
})

var _ = DescribeTable("LevelFromString",
	func(in string, want slog.Level) {
		Expect(LevelFromString(in)).To(Equal(want))
	},
	Entry("debug", "debug", slog.LevelDebug),
	Entry("upper case", "ERROR", slog.LevelError),
	Entry("warning alias", "warning", slog.LevelWarn),
	Entry("unknown", "loud", slog.LevelInfo),
)
