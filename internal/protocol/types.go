package protocol

// Direction selects which packet taxonomy a buffer is decoded against.
type Direction uint8

const (
	DeviceOrigin Direction = iota + 1
	ServerOrigin
)

func (d Direction) String() string {
	switch d {
	case DeviceOrigin:
		return "device"
	case ServerOrigin:
		return "server"
	default:
		return "unknown"
	}
}

// Packet is one payload variant of either taxonomy.
type Packet interface {
	// Discriminant is the wire tag selecting this variant.
	Discriminant() uint32
	Direction() Direction
	appendPayload(dst []byte) ([]byte, error)
}

// DevicePacket is a packet sent by a tracker.
type DevicePacket interface {
	Packet
	devicePacket()
}

// ServerPacket is a packet sent by the server.
type ServerPacket interface {
	Packet
	serverPacket()
}

// Envelope is the transmitted unit: a packet number plus one payload.
// The discriminant is derived from Payload and is not stored.
type Envelope[P Packet] struct {
	PacketNumber uint64
	Payload      P
}

// Quaternion is an orientation as four packed f32 values.
type Quaternion struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

// Vector is a 3-axis sample. The wire carries a fourth, always-zero
// component which is not exposed.
type Vector struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Calibration holds bias and correction values in logical order. On the
// wire every array is stored reversed; see ReverseVector and ReverseMatrix.
type Calibration struct {
	GyroBias        [3]float32    `json:"gyro_bias"`
	MagCorrection   [3][3]float32 `json:"mag_correction"`
	MagBias         [3]float32    `json:"mag_bias"`
	AccelCorrection [3][3]float32 `json:"accel_correction"`
	AccelBias       [3]float32    `json:"accel_bias"`
}

// DeviceConfig is the little-endian configuration block shared by the
// device Config and server SetConfig packets.
type DeviceConfig struct {
	Calibration Calibration `json:"calibration"`
	DeviceID    uint32      `json:"device_id"`
	DeviceMode  uint32      `json:"device_mode"`
}

// Device discriminants.
const (
	DeviceMsgHeartbeat       uint32 = 0
	DeviceMsgRotation        uint32 = 1
	DeviceMsgGyroscope       uint32 = 2
	DeviceMsgHandshake       uint32 = 3
	DeviceMsgAccelerometer   uint32 = 4
	DeviceMsgMagnetometer    uint32 = 5
	DeviceMsgConfig          uint32 = 8
	DeviceMsgRawMagnetometer uint32 = 9
	DeviceMsgPingPong        uint32 = 10
	DeviceMsgResetReason     uint32 = 14
	DeviceMsgSensorInfo      uint32 = 15
	DeviceMsgRotationData    uint32 = 17
)

// Server discriminants.
const (
	ServerMsgHeartbeat  uint32 = 1
	ServerMsgVibrate    uint32 = 2
	ServerMsgHandshake  uint32 = 3
	ServerMsgCommand    uint32 = 4
	ServerMsgSetConfig  uint32 = 8
	ServerMsgPingPong   uint32 = 10
	ServerMsgSensorInfo uint32 = 15
)

// Command bytes carried by ServerCommand.
const (
	CommandCalibrate  uint8 = 1
	CommandSendConfig uint8 = 2
	CommandBlink      uint8 = 3
)

// Sensor status and rotation data type bytes.
const (
	SensorStatusOffline uint8 = 0
	SensorStatusOK      uint8 = 1
	SensorStatusError   uint8 = 2

	RotationDataNormal     uint8 = 1
	RotationDataCorrection uint8 = 2
)

var deviceKindNames = map[uint32]string{
	DeviceMsgHeartbeat:       "heartbeat",
	DeviceMsgRotation:        "rotation",
	DeviceMsgGyroscope:       "gyroscope",
	DeviceMsgHandshake:       "handshake",
	DeviceMsgAccelerometer:   "accelerometer",
	DeviceMsgMagnetometer:    "magnetometer",
	DeviceMsgConfig:          "config",
	DeviceMsgRawMagnetometer: "raw_magnetometer",
	DeviceMsgPingPong:        "ping_pong",
	DeviceMsgResetReason:     "reset_reason",
	DeviceMsgSensorInfo:      "sensor_info",
	DeviceMsgRotationData:    "rotation_data",
}

var serverKindNames = map[uint32]string{
	ServerMsgHeartbeat:  "heartbeat",
	ServerMsgVibrate:    "vibrate",
	ServerMsgHandshake:  "handshake",
	ServerMsgCommand:    "command",
	ServerMsgSetConfig:  "set_config",
	ServerMsgPingPong:   "ping_pong",
	ServerMsgSensorInfo: "sensor_info",
}

// KindName returns a short name for a discriminant, or "unknown".
func KindName(dir Direction, disc uint32) string {
	var names map[uint32]string
	switch dir {
	case DeviceOrigin:
		names = deviceKindNames
	case ServerOrigin:
		names = serverKindNames
	}
	if name, ok := names[disc]; ok {
		return name
	}
	return "unknown"
}
