package series

import (
	"fmt"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/outage-collector/pkg/snapshot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SumField sums a numeric field over the payload's top-level array. Entries
// without the field count as 0; a payload that is not an array is malformed.
func SumField(field string) Extractor {
	return func(payload []byte) (float64, error) {
		var rows []map[string]jsoniter.RawMessage
		if err := json.Unmarshal(payload, &rows); err != nil {
			return 0, fmt.Errorf("expected array of objects: %w", err)
		}
		var sum float64
		for i, row := range rows {
			raw, ok := row[field]
			if !ok {
				continue
			}
			var v *float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return 0, fmt.Errorf("entry %d: %s is not a number: %w", i, field, err)
			}
			if v != nil {
				sum += *v
			}
		}
		return sum, nil
	}
}

// FinePoint 高精度故障数据的一个文件
type FinePoint struct {
	Time           time.Time
	FaultCount     int
	PeopleAffected float64
}

type fineDocument struct {
	Features []struct {
		Attributes struct {
			NumPeople float64 `json:"numpeople"`
		} `json:"attributes"`
	} `json:"features"`
}

func parseFine(payload []byte) (faults int, people float64, err error) {
	var doc fineDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return 0, 0, err
	}
	for _, f := range doc.Features {
		people += f.Attributes.NumPeople
	}
	return len(doc.Features), people, nil
}

// LoadFineSeries 读取不规则数据源的全部文件（按时间排序，不补缺口），
// 每个文件统计故障数与受影响人数。坏文件跳过并告警
func LoadFineSeries(store *snapshot.Store, source string, log *zap.Logger) ([]FinePoint, error) {
	if log == nil {
		log = zap.NewNop()
	}
	listing, err := store.List(source)
	if err != nil {
		return nil, err
	}
	for _, rej := range listing.Rejected {
		log.Warn("skipping snapshot with undecodable name", zap.String("source", source), zap.String("name", rej.Name))
	}

	out := make([]FinePoint, 0, len(listing.Entries))
	for _, e := range listing.Entries {
		payload, err := store.ReadEntry(e)
		if err != nil {
			log.Warn("unreadable fine snapshot skipped", zap.String("path", e.Path), zap.Error(err))
			continue
		}
		faults, people, err := parseFine(payload)
		if err != nil {
			log.Warn("malformed fine snapshot skipped", zap.String("path", e.Path), zap.Error(err))
			continue
		}
		out = append(out, FinePoint{Time: e.Time, FaultCount: faults, PeopleAffected: people})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

