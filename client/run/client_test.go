package run

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ReadResponse", func() {
	It("should split attributes from the body", func() {
		resp, err := ReadResponse(bufio.NewReader(strings.NewReader(
			"TXT01cmd: list\nstatus: 0\nlist-len: 2\n\n0 Firefox\n1 Files\n\nTXT01")))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Err()).NotTo(HaveOccurred())
		Expect(resp.Attrs).To(HaveKeyWithValue("list-len", "2"))
		Expect(resp.Rows()).To(Equal([]Row{{0, "Firefox"}, {1, "Files"}}))

		var out bytes.Buffer
		resp.Print(&out)
		Expect(out.String()).To(Equal("cmd: list\nstatus: 0\nlist-len: 2\n\n0 Firefox\n1 Files\n"))
	})

	It("should surface server errors", func() {
		resp, err := ReadResponse(bufio.NewReader(strings.NewReader(
			"TXT01error-cmd: run\nerror: index not found\ndesc: nothing selected\n\n\n")))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Body).To(BeEmpty())
		Expect(resp.Err()).To(MatchError("server error: index not found: nothing selected"))
	})

	It("should reject a foreign header", func() {
		_, err := ReadResponse(bufio.NewReader(strings.NewReader("HTTP/1.1 200 OK\n")))
		Expect(err).To(HaveOccurred())
	})

	It("should fail on a truncated response", func() {
		_, err := ReadResponse(bufio.NewReader(strings.NewReader("TXT01cmd: list\n")))
		Expect(err).To(MatchError(io.EOF))
	})
})

var _ = Describe("FormatArgument", func() {
	DescribeTable("typing arguments",
		func(arg, want string) {
			Expect(FormatArgument(arg)).To(Equal(want))
		},
		Entry("keeps quoted strings", `"fire`, `"fire`),
		Entry("keeps numbers", "3", "3"),
		Entry("quotes words", "fire fox", `"fire fox`),
	)
})

var _ = Describe("Client", func() {
	var (
		client     *Client
		serverConn net.Conn
		requests   chan string
	)

	BeforeEach(func() {
		var clientConn net.Conn
		clientConn, serverConn = net.Pipe()
		requests = make(chan string, 10)

		// Fake server: echoes every command back as a one-row list
		go func() {
			defer serverConn.Close()
			r := bufio.NewReader(serverConn)
			header := make([]byte, 5)
			if _, err := io.ReadFull(r, header); err != nil {
				return
			}
			var pending []string
			for {
				line, err := r.ReadString('\n')
				if err != nil {
					return
				}
				line = strings.TrimSuffix(line, "\n")
				pending = append(pending, line)
				if strings.HasPrefix(line, `"`) || line == "1" {
					continue
				}
				requests <- strings.Join(pending, "|")
				pending = nil
				io.WriteString(serverConn, "TXT01cmd: "+line+"\nstatus: 0\n\n0 "+line+"\n\n")
			}
		}()

		var err error
		client, err = newClient(clientConn)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(client.Close)
	})

	It("should push typed arguments before the command", func() {
		resp, err := client.Query("42")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Attrs).To(HaveKeyWithValue("cmd", "query"))
		Expect(requests).To(Receive(Equal(`"42|query`)))

		_, err = client.Run(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(requests).To(Receive(Equal("1|run")))

		_, err = client.SetMode("files")
		Expect(err).NotTo(HaveOccurred())
		Expect(requests).To(Receive(Equal(`"files|setmode`)))
	})

	It("should send bare commands", func() {
		for _, do := range []func() (*Response, error){
			client.List, client.CycleMode, client.Modes, client.Up, client.Down, client.Reset, client.Cancel,
		} {
			_, err := do()
			Expect(err).NotTo(HaveOccurred())
		}

		var got []string
		for i := 0; i < 7; i++ {
			var req string
			Expect(requests).To(Receive(&req))
			got = append(got, req)
		}
		Expect(got).To(Equal([]string{"list", "mode", "modes", "up", "down", "reset", "cancel"}))
	})
})

var _ = Describe("SocketPath", func() {
	It("should prefer ADE_RUN_SOCK and expand the home directory", func() {
		old, had := os.LookupEnv("ADE_RUN_SOCK")
		DeferCleanup(func() {
			if had {
				os.Setenv("ADE_RUN_SOCK", old)
			} else {
				os.Unsetenv("ADE_RUN_SOCK")
			}
		})
		os.Setenv("ADE_RUN_SOCK", "~/run.sock")

		home, err := os.UserHomeDir()
		Expect(err).NotTo(HaveOccurred())

		path, err := SocketPath()
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(home + "/run.sock"))
	})
})
