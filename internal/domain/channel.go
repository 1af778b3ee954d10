package domain

// Channel is a named measurement line on an ACME probe.
type Channel string

const (
	ChannelVshunt Channel = "Vshunt"
	ChannelVbat   Channel = "Vbat"
	ChannelTime   Channel = "Time"
	ChannelIshunt Channel = "Ishunt"
	ChannelPower  Channel = "Power"
)

// DefaultCaptureChannels are the channels acquired from hardware. Power is
// derived after capture, never collected.
var DefaultCaptureChannels = []Channel{ChannelTime, ChannelVbat, ChannelIshunt}

// channelIDs maps explicit channel names to IIO channel ids as exposed by the
// cape firmware.
var channelIDs = map[Channel]string{
	ChannelVshunt: "voltage0",
	ChannelVbat:   "voltage1",
	ChannelTime:   "timestamp",
	ChannelIshunt: "current3",
	ChannelPower:  "power2",
}

var channelUnits = map[Channel]string{
	ChannelVshunt: "mV",
	ChannelVbat:   "mV",
	ChannelTime:   "ns",
	ChannelIshunt: "mA",
	ChannelPower:  "mW",
}

// DeviceID returns the IIO channel id for a logical channel name. The second
// return value is false for channels unknown to the cape.
func (c Channel) DeviceID() (string, bool) {
	id, ok := channelIDs[c]
	return id, ok
}

// Unit returns the physical unit of scaled samples on this channel.
func (c Channel) Unit() string {
	return channelUnits[c]
}

// IsTimestamp reports whether the channel carries raw 64-bit nanosecond
// timestamps instead of 16-bit measurement samples.
func (c Channel) IsTimestamp() bool {
	return c == ChannelTime
}

// ParseChannel validates a channel name from config or CLI input.
func ParseChannel(name string) (Channel, bool) {
	c := Channel(name)
	_, ok := channelIDs[c]
	return c, ok
}
