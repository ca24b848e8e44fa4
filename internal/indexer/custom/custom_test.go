package custom

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Stream", func() {
	It("should send each output line as it is read", func() {
		lines := make(chan string, 10)
		Expect(Stream(context.Background(), `printf 'a.txt\r\nb.txt\n\nc d.txt'`, lines)).To(Succeed())
		close(lines)

		var got []string
		for l := range lines {
			got = append(got, l)
		}
		Expect(got).To(Equal([]string{"a.txt", "b.txt", "c d.txt"}))
	})

	It("should deliver lines before the command exits", func() {
		lines := make(chan string, 10)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- Stream(ctx, `sh -c "echo first; sleep 60"`, lines) }()

		Eventually(lines, 5*time.Second).Should(Receive(Equal("first")))
		cancel()
		Eventually(done, 5*time.Second).Should(Receive(MatchError(context.Canceled)))
	})

	It("should report a failing command", func() {
		lines := make(chan string, 1)
		Expect(Stream(context.Background(), "false", lines)).To(HaveOccurred())
	})

	It("should reject an empty command", func() {
		Expect(Stream(context.Background(), "  ", make(chan string))).To(MatchError(ErrEmptyCommand))
	})

	It("should reject unbalanced quotes", func() {
		Expect(Stream(context.Background(), `echo "open`, make(chan string))).To(HaveOccurred())
	})
})
