package protocol

// ServerHeartbeat asks the tracker for a heartbeat.
type ServerHeartbeat struct{}

// ServerVibrate asks the tracker to vibrate.
type ServerVibrate struct{}

// ServerHandshake acknowledges the tracker's handshake.
type ServerHandshake struct{}

// ServerCommand carries a command byte followed by every byte left in the
// buffer.
type ServerCommand struct {
	Command uint8  `json:"command"`
	Data    []byte `json:"data"`
}

// ServerSetConfig replaces the tracker's config block.
type ServerSetConfig struct {
	Config DeviceConfig `json:"config"`
}

// ServerPingPong carries every byte left in the buffer and is echoed back.
type ServerPingPong struct {
	Data []byte `json:"data"`
}

// ServerSensorInfo asks for a sensor status report.
type ServerSensorInfo struct{}

func (ServerHeartbeat) Discriminant() uint32  { return ServerMsgHeartbeat }
func (ServerVibrate) Discriminant() uint32    { return ServerMsgVibrate }
func (ServerHandshake) Discriminant() uint32  { return ServerMsgHandshake }
func (ServerCommand) Discriminant() uint32    { return ServerMsgCommand }
func (ServerSetConfig) Discriminant() uint32  { return ServerMsgSetConfig }
func (ServerPingPong) Discriminant() uint32   { return ServerMsgPingPong }
func (ServerSensorInfo) Discriminant() uint32 { return ServerMsgSensorInfo }

func (ServerHeartbeat) Direction() Direction  { return ServerOrigin }
func (ServerVibrate) Direction() Direction    { return ServerOrigin }
func (ServerHandshake) Direction() Direction  { return ServerOrigin }
func (ServerCommand) Direction() Direction    { return ServerOrigin }
func (ServerSetConfig) Direction() Direction  { return ServerOrigin }
func (ServerPingPong) Direction() Direction   { return ServerOrigin }
func (ServerSensorInfo) Direction() Direction { return ServerOrigin }

func (ServerHeartbeat) serverPacket()  {}
func (ServerVibrate) serverPacket()    {}
func (ServerHandshake) serverPacket()  {}
func (ServerCommand) serverPacket()    {}
func (ServerSetConfig) serverPacket()  {}
func (ServerPingPong) serverPacket()   {}
func (ServerSensorInfo) serverPacket() {}

func (ServerHeartbeat) appendPayload(dst []byte) ([]byte, error)  { return dst, nil }
func (ServerVibrate) appendPayload(dst []byte) ([]byte, error)    { return dst, nil }
func (ServerHandshake) appendPayload(dst []byte) ([]byte, error)  { return dst, nil }
func (ServerSensorInfo) appendPayload(dst []byte) ([]byte, error) { return dst, nil }

func (p ServerCommand) appendPayload(dst []byte) ([]byte, error) {
	dst = append(dst, p.Command)
	return append(dst, p.Data...), nil
}

func (p ServerSetConfig) appendPayload(dst []byte) ([]byte, error) {
	return appendConfig(dst, littleEndian, p.Config), nil
}

func (p ServerPingPong) appendPayload(dst []byte) ([]byte, error) {
	return append(dst, p.Data...), nil
}

// decodeServerPayload maps a discriminant onto the server taxonomy.
func decodeServerPayload(disc uint32, r *reader) (ServerPacket, error) {
	switch disc {
	case ServerMsgHeartbeat:
		return ServerHeartbeat{}, nil
	case ServerMsgVibrate:
		return ServerVibrate{}, nil
	case ServerMsgHandshake:
		return ServerHandshake{}, nil
	case ServerMsgCommand:
		cmd, err := r.u8()
		if err != nil {
			return nil, err
		}
		return ServerCommand{Command: cmd, Data: r.rest()}, nil
	case ServerMsgSetConfig:
		cfg, err := decodeConfig(r, littleEndian)
		if err != nil {
			return nil, err
		}
		return ServerSetConfig{Config: cfg}, nil
	case ServerMsgPingPong:
		return ServerPingPong{Data: r.rest()}, nil
	case ServerMsgSensorInfo:
		return ServerSensorInfo{}, nil
	default:
		return nil, &UnknownDiscriminantError{Direction: ServerOrigin, Value: disc}
	}
}
