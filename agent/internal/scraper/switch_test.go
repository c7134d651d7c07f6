package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// testCookie is the session cookie the fake switch hands out.
const testCookie = "SID=abcdef0123456789; PATH=/"

// fakeSwitch emulates the three GS108E web UI endpoints the agent uses.
type fakeSwitch struct {
	mu       sync.Mutex
	password string
	page     string // body served for port_statistics.htm
	noCookie bool   // omit Set-Cookie on login
	status   int    // status for port_statistics.htm, 0 = 200

	logins   int
	logouts  int
	statsHit int
	badAuth  int // stats/logout requests without the session cookie
}

func newFakeSwitch(t *testing.T, page string) (*fakeSwitch, *httptest.Server) {
	t.Helper()
	fs := &fakeSwitch{password: "hunter2", page: page}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeSwitch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch r.URL.Path {
	case loginPath:
		fs.logins++
		if r.Method != http.MethodPost || r.FormValue("password") != fs.password || fs.noCookie {
			_, _ = w.Write([]byte("<html><form action=login.cgi></form></html>"))
			return
		}
		w.Header().Set("Set-Cookie", testCookie)
		_, _ = w.Write([]byte("<html>ok</html>"))

	case statisticsPath:
		fs.statsHit++
		if r.Header.Get("Cookie") != testCookie {
			fs.badAuth++
		}
		if fs.status != 0 {
			w.WriteHeader(fs.status)
			return
		}
		_, _ = w.Write([]byte(fs.page))

	case logoutPath:
		fs.logouts++
		if r.Header.Get("Cookie") != testCookie {
			fs.badAuth++
		}
		_, _ = w.Write([]byte("<html>bye</html>"))

	default:
		http.NotFound(w, r)
	}
}

func (fs *fakeSwitch) counts() (logins, logouts, stats, badAuth int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.logins, fs.logouts, fs.statsHit, fs.badAuth
}

// portRow renders one counter row the way the switch firmware does.
func portRow(port int, recv, sent, crc string) string {
	return fmt.Sprintf(`<tr class="portID">
  <td class="def" sel="text">%d</td>
  <td class="def" sel="input"><input type="hidden" name="rxPkt" value="%s"></td>
  <td class="def" sel="input"><input type="hidden" name="txpkt" value="%s"></td>
  <td class="def" sel="input"><input type="hidden" name="crcPkt" value="%s"></td>
</tr>`, port, recv, sent, crc)
}

// statsPage wraps rows in the surrounding page markup.
func statsPage(rows ...string) string {
	return `<html><head><title>Port Statistics</title></head><body>
<form name="statistics">
<table class="tableStyle">
<tr><td class="def">Port</td><td>Bytes Received</td><td>Bytes Sent</td><td>CRC Error Packets</td></tr>
` + strings.Join(rows, "\n") + `
</table>
</form></body></html>`
}
