package wacom

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// "<name> id: <n> type: <kind>" の行に一致する
var deviceLinePattern = regexp.MustCompile(`(.+?)\s+id:\s*(\d+)\s+type:\s*(\w+)`)

// parseDevices は --list devices の出力を解析する。一致しない行は読み飛ばす。
func parseDevices(out string) ([]Device, error) {
	devices := []Device{}
	for _, line := range strings.Split(out, "\n") {
		m := deviceLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		id, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, &ParseError{Op: "--list devices", Output: line, Err: err}
		}
		kind, err := ParseKind(m[3])
		if err != nil {
			return nil, &ParseError{Op: "--list devices", Output: line, Err: err}
		}

		devices = append(devices, Device{
			Name: strings.TrimSpace(m[1]),
			ID:   id,
			Kind: kind,
		})
	}
	return devices, nil
}

// parseInts は空白区切りの先頭n個の整数を読み取る
func parseInts(out string, n int) ([]int, error) {
	fields := strings.Fields(out)
	if len(fields) < n {
		return nil, fmt.Errorf("%d 個の値が必要ですが %d 個しかありません", n, len(fields))
	}

	values := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("%d 番目の値が整数ではありません: %w", i+1, err)
		}
		values[i] = v
	}
	return values, nil
}
