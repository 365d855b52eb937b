// Package profile は設定ファイルのプロファイルをデバイスへ適用する
package profile

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/char5742/tabletctl/internal/config"
	"github.com/char5742/tabletctl/internal/wacom"
)

// Report は適用結果を表す構造体
type Report struct {
	Applied []wacom.Device `json:"applied"` // 1つ以上のプロファイルを適用したデバイス
	Skipped int            `json:"skipped"` // どのプロファイルにも一致しなかったデバイス数
}

// Matches はプロファイルがデバイスに一致するか判定する
func Matches(p config.Profile, d wacom.Device) bool {
	if !strings.Contains(d.Name, p.Match) {
		return false
	}
	if p.Kind != "" {
		kind, err := wacom.ParseKind(p.Kind)
		if err != nil || kind != d.Kind {
			return false
		}
	}
	return true
}

// Apply は接続中のデバイスに一致するプロファイルを順番に適用する。
// あるデバイスで失敗しても残りのデバイスへの適用は続ける。
func Apply(t *wacom.Tablet, profiles []config.Profile) (Report, error) {
	var report Report

	devices, err := t.ListDevices()
	if err != nil {
		return report, fmt.Errorf("デバイス一覧の取得に失敗しました: %w", err)
	}

	var errs []error
	for _, device := range devices {
		matched := false
		for _, p := range profiles {
			if !Matches(p, device) {
				continue
			}
			matched = true
			if err := applyProfile(t, device, p); err != nil {
				log.Printf("プロファイルの適用に失敗しました: %s (id=%d): %v", device.Name, device.ID, err)
				errs = append(errs, fmt.Errorf("%s (id=%d): %w", device.Name, device.ID, err))
			}
		}

		if matched {
			report.Applied = append(report.Applied, device)
		} else {
			report.Skipped++
		}
	}

	return report, errors.Join(errs...)
}

// applyProfile は1つのプロファイルを1つのデバイスへ適用する
func applyProfile(t *wacom.Tablet, d wacom.Device, p config.Profile) error {
	if len(p.PressureCurve) == 4 {
		curve := wacom.PressureCurve{
			MinX: p.PressureCurve[0],
			MinY: p.PressureCurve[1],
			MaxX: p.PressureCurve[2],
			MaxY: p.PressureCurve[3],
		}
		if err := t.SetPressureCurve(d.ID, curve); err != nil {
			return fmt.Errorf("筆圧カーブ: %w", err)
		}
	}

	if p.Threshold != nil {
		if err := t.SetThreshold(d.ID, *p.Threshold); err != nil {
			return fmt.Errorf("クリック閾値: %w", err)
		}
	}

	if p.CursorProximity != nil {
		if err := t.SetCursorProximity(d.ID, *p.CursorProximity); err != nil {
			return fmt.Errorf("近接距離: %w", err)
		}
	}

	if len(p.Area) == 4 {
		area := wacom.Area{OffsetX: p.Area[0], OffsetY: p.Area[1], Width: p.Area[2], Height: p.Area[3]}
		if err := t.SetArea(d.ID, area); err != nil {
			return fmt.Errorf("領域: %w", err)
		}
	}

	if p.Output != "" {
		if err := t.SetOutputFromDisplay(d.ID, p.Output); err != nil {
			return fmt.Errorf("出力先: %w", err)
		}
	}

	if p.Handedness != "" {
		h, err := wacom.ParseHandedness(p.Handedness)
		if err != nil {
			return err
		}
		if err := t.SetHandedness(d.ID, h); err != nil {
			return fmt.Errorf("利き手: %w", err)
		}
	}

	log.Printf("プロファイルを適用しました: %s (id=%d, match=%q)", d.Name, d.ID, p.Match)
	return nil
}
