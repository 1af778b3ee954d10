package iio

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ptitiano/acme-utils/internal/domain"
)

// The cape reports per-slot probe attributes as a free-text blob. Parsing
// keys off stable markers only: a connector type keyword, the shunt value,
// and the power switch marker.
var shuntPattern = regexp.MustCompile(`R_Shunt:\s*(\d+)\s*uOhm`)

const powerSwitchMarker = "Has Power Switch"

var probeTypes = []domain.ProbeType{
	domain.ProbeTypeJack,
	domain.ProbeTypeUSB,
	domain.ProbeTypeHE10,
}

// SlotPopulated reports whether an info blob describes an actual probe. The
// cape answers "Failed" for empty slots.
func SlotPopulated(blob string) bool {
	return blob != "" && !strings.Contains(blob, "Failed")
}

// ParseProbeInfo extracts the typed probe attributes from an info blob. The
// rest of the engine never inspects the raw text.
func ParseProbeInfo(blob string) (domain.ProbeInfo, error) {
	var info domain.ProbeInfo

	for _, t := range probeTypes {
		if strings.Contains(blob, string(t)) {
			info.Type = t
			break
		}
	}
	if info.Type == "" {
		return domain.ProbeInfo{}, fmt.Errorf("%w: no probe type marker in %q", domain.ErrParse, blob)
	}

	m := shuntPattern.FindStringSubmatch(blob)
	if m == nil {
		return domain.ProbeInfo{}, fmt.Errorf("%w: no R_Shunt marker in %q", domain.ErrParse, blob)
	}
	shunt, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.ProbeInfo{}, fmt.Errorf("%w: shunt value %q: %v", domain.ErrParse, m[1], err)
	}
	info.ShuntMicroOhm = shunt

	info.HasPowerSwitch = strings.Contains(blob, powerSwitchMarker)

	return info, nil
}
