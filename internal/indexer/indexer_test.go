package indexer

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/0xADE/ade-run/internal/logging"
)

func collect(events <-chan Event) []Event {
	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

var _ = ginkgo.Describe("Feed", func() {
	var (
		feed   *Feed
		ctx    context.Context
		cancel context.CancelFunc
		tmpDir string
	)

	ginkgo.BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		feed = NewFeed(ctx, logging.Discard())

		var err error
		tmpDir, err = os.MkdirTemp("", "ade-run-feed-*")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})

	ginkgo.AfterEach(func() {
		cancel()
		feed.Stop()
		os.RemoveAll(tmpDir)
	})

	ginkgo.Context("when walking application directories", func() {
		ginkgo.BeforeEach(func() {
			appsDir := filepath.Join(tmpDir, "applications")
			gomega.Expect(os.MkdirAll(filepath.Join(appsDir, "sub"), 0755)).To(gomega.Succeed())

			files := map[string]string{
				"firefox.desktop":   "[Desktop Entry]\nName=Firefox\nExec=firefox %u\nIcon=firefox\n",
				"sub/files.desktop": "[Desktop Entry]\nName=Files\nExec=nautilus\n",
				"hidden.desktop":    "[Desktop Entry]\nName=Hidden\nExec=hidden\nNoDisplay=true\n",
				"broken.desktop":    "[Desktop Entry]\nName=Broken\n",
				"notes.txt":         "not an entry",
			}
			for name, content := range files {
				gomega.Expect(os.WriteFile(filepath.Join(appsDir, name), []byte(content), 0644)).To(gomega.Succeed())
			}

			feed.StartDesktop([]string{appsDir, filepath.Join(tmpDir, "missing")})
		})

		ginkgo.It("should deliver every launchable entry and report broken ones", func() {
			var names []string
			var failures int
			gomega.Eventually(func() int {
				for {
					select {
					case ev := <-feed.Events():
						switch {
						case ev.Desktop != nil:
							names = append(names, ev.Desktop.Name)
						case ev.Err != nil:
							gomega.Expect(ev.Err).To(gomega.MatchError(ErrAcquisition))
							failures++
						}
					default:
						return len(names) + failures
					}
				}
			}, 5*time.Second).Should(gomega.Equal(3))

			gomega.Expect(names).To(gomega.ConsistOf("Firefox", "Files"))
			gomega.Expect(failures).To(gomega.Equal(1))
		})
	})

	ginkgo.Context("when running custom sources", func() {
		ginkgo.It("should deliver lines in output order", func() {
			gomega.Expect(feed.StartCustom("files", `printf 'a.txt\n\nb.txt\n'`)).To(gomega.BeTrue())

			var lines []string
			gomega.Eventually(func() []string {
				select {
				case ev := <-feed.Events():
					if ev.Custom != nil {
						gomega.Expect(ev.Custom.Mode).To(gomega.Equal("files"))
						lines = append(lines, ev.Custom.Text)
					}
				default:
				}
				return lines
			}, 5*time.Second).Should(gomega.Equal([]string{"a.txt", "b.txt"}))
		})

		ginkgo.It("should start a mode only once", func() {
			gomega.Expect(feed.StartCustom("files", "true")).To(gomega.BeTrue())
			gomega.Expect(feed.StartCustom("files", "true")).To(gomega.BeFalse())
		})

		ginkgo.It("should report a source that cannot start", func() {
			feed.StartCustom("broken", "/nonexistent/ade-run-source")

			var ev Event
			gomega.Eventually(feed.Events(), 5*time.Second).Should(gomega.Receive(&ev))
			gomega.Expect(ev.Err).To(gomega.MatchError(ErrAcquisition))
		})

		ginkgo.It("should stop long-running sources", func() {
			feed.StartCustom("slow", "sleep 60")
			gomega.Eventually(feed.Running).Should(gomega.Equal(1))

			cancel()
			feed.Stop()
			gomega.Expect(feed.Running()).To(gomega.Equal(0))
			gomega.Expect(collect(feed.Events())).To(gomega.BeEmpty())
		})
	})

	ginkgo.Context("after Stop", func() {
		ginkgo.It("should ignore new sources", func() {
			feed.Stop()
			gomega.Expect(feed.StartCustom("late", "true")).To(gomega.BeFalse())
			feed.StartDesktop([]string{tmpDir})
			gomega.Expect(feed.Running()).To(gomega.Equal(0))
		})
	})
})
