package log

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
)

// lineFormatter renders "[timestamp] LEVEL   - message key=value ...".
type lineFormatter struct {
	timeLayout string
	color      bool
}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	if f.color {
		b.WriteString(levelColor(e.Level))
	}
	fmt.Fprintf(&b, "[%s] %-7s - %s", e.Time.Format(f.timeLayout), strings.ToUpper(e.Level.String()), e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}

	if f.color {
		b.WriteString(colorReset)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelColor(level logrus.Level) string {
	switch level {
	case logrus.WarnLevel:
		return colorYellow
	case logrus.ErrorLevel:
		return colorRed
	case logrus.FatalLevel, logrus.PanicLevel:
		return colorRed + colorBold
	default:
		return colorGreen
	}
}

// fileHook writes every fired entry to w using its own formatter, so the
// file copy stays uncolored whatever the console does.
type fileHook struct {
	mu        sync.Mutex
	w         io.Writer
	formatter logrus.Formatter
}

func newFileHook(w io.Writer, formatter logrus.Formatter) *fileHook {
	return &fileHook{w: w, formatter: formatter}
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(e *logrus.Entry) error {
	line, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(line)
	return err
}

var strftimeReplacer = strings.NewReplacer(
	"%Y", "2006",
	"%y", "06",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%I", "03",
	"%M", "04",
	"%S", "05",
	"%f", "000000",
	"%p", "PM",
	"%b", "Jan",
	"%B", "January",
	"%a", "Mon",
	"%A", "Monday",
	"%z", "-0700",
	"%Z", "MST",
	"%%", "%",
)

// TimeLayout translates a strftime format into a Go time layout. Unknown
// directives are kept verbatim.
func TimeLayout(strftime string) string {
	if strftime == "" {
		strftime = DefaultTimeFormat
	}
	return strftimeReplacer.Replace(strftime)
}
