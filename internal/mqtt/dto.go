// dto.go: wire shape of published verdicts.
package mqtt

import (
	"encoding/json"

	"github.com/pcbvision/aoi-go/internal/artifact"
)

// VerdictMessage is the payload published for each completed
// inspection. It wraps the persisted result record with the station
// identity so consumers can tell inspection lines apart.
type VerdictMessage struct {
	Station string           `json:"station"`
	Result  *artifact.Record `json:"result"`
}

// VerdictTopic builds the per-inspection topic {prefix}/{id}.
func VerdictTopic(prefix, id string) string {
	return prefix + "/" + id
}

// EncodeVerdict marshals a verdict message for publishing.
func EncodeVerdict(station string, rec *artifact.Record) (string, error) {
	payload, err := json.Marshal(&VerdictMessage{Station: station, Result: rec})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
