package sx126x

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFields(t *testing.T) {
	tests := []struct {
		status Status
		mode   ChipMode
		cmd    CommandStatus
	}{
		{0x24, ChipModeStandbyRC, CommandStatusDataAvailable},
		{0x34, ChipModeStandbyXOSC, CommandStatusDataAvailable},
		{0x44, ChipModeFS, CommandStatusDataAvailable},
		{0x54, ChipModeRX, CommandStatusDataAvailable},
		{0x6C, ChipModeTX, CommandStatusTxDone},
	}

	for _, test := range tests {
		assert.Equal(t, test.mode, test.status.ChipMode(), "status 0x%02x", uint8(test.status))
		assert.Equal(t, test.cmd, test.status.CommandStatus(), "status 0x%02x", uint8(test.status))
		assert.NoError(t, test.status.Err())
	}
}

func TestStatusNames(t *testing.T) {
	assert.Equal(t, "STBY_RC", ChipModeStandbyRC.String())
	assert.Equal(t, "STBY_XOSC", ChipModeStandbyXOSC.String())
	assert.Equal(t, "execution failure", CommandStatusFailure.String())
	assert.Equal(t, "ChipMode(0x0)", ChipMode(0).String())
}
