package protocol

import "math"

const maxVersionLen = math.MaxUint8

// DeviceHeartbeat keeps the tracker's session alive.
type DeviceHeartbeat struct {
	Value uint64 `json:"value"`
}

// DeviceRotation is a legacy orientation report without a sensor id.
type DeviceRotation struct {
	Rotation Quaternion `json:"rotation"`
}

// DeviceGyroscope has an empty payload.
type DeviceGyroscope struct{}

// DeviceHandshake announces the tracker's hardware and firmware. Three
// reserved u32 words follow MCU on the wire; they are written as zero and
// dropped on read.
type DeviceHandshake struct {
	Board       uint32 `json:"board"`
	IMU         uint32 `json:"imu"`
	MCU         uint32 `json:"mcu"`
	BuildNumber uint32 `json:"build_number"`
	Version     []byte `json:"version"`
}

// DeviceAccelerometer reports linear acceleration.
type DeviceAccelerometer struct {
	Acceleration Vector `json:"acceleration"`
}

// DeviceMagnetometer reports the calibrated magnetic field.
type DeviceMagnetometer struct {
	Field Vector `json:"field"`
}

// DeviceConfigReport answers a SendConfig command with the device's config block.
type DeviceConfigReport struct {
	Config DeviceConfig `json:"config"`
}

// DeviceRawMagnetometer reports the uncalibrated magnetic field.
type DeviceRawMagnetometer struct {
	Field Vector `json:"field"`
}

// DevicePingPong carries every byte left in the buffer.
type DevicePingPong struct {
	Data []byte `json:"data"`
}

// DeviceResetReason has an empty payload.
type DeviceResetReason struct{}

// DeviceSensorInfo reports one sensor's status.
type DeviceSensorInfo struct {
	SensorID uint8 `json:"sensor_id"`
	Status   uint8 `json:"status"`
}

// DeviceRotationData is an orientation sample for one sensor.
type DeviceRotationData struct {
	SensorID uint8      `json:"sensor_id"`
	DataType uint8      `json:"data_type"`
	Rotation Quaternion `json:"rotation"`
	Accuracy uint8      `json:"accuracy"`
}

func (DeviceHeartbeat) Discriminant() uint32       { return DeviceMsgHeartbeat }
func (DeviceRotation) Discriminant() uint32        { return DeviceMsgRotation }
func (DeviceGyroscope) Discriminant() uint32       { return DeviceMsgGyroscope }
func (DeviceHandshake) Discriminant() uint32       { return DeviceMsgHandshake }
func (DeviceAccelerometer) Discriminant() uint32   { return DeviceMsgAccelerometer }
func (DeviceMagnetometer) Discriminant() uint32    { return DeviceMsgMagnetometer }
func (DeviceConfigReport) Discriminant() uint32    { return DeviceMsgConfig }
func (DeviceRawMagnetometer) Discriminant() uint32 { return DeviceMsgRawMagnetometer }
func (DevicePingPong) Discriminant() uint32        { return DeviceMsgPingPong }
func (DeviceResetReason) Discriminant() uint32     { return DeviceMsgResetReason }
func (DeviceSensorInfo) Discriminant() uint32      { return DeviceMsgSensorInfo }
func (DeviceRotationData) Discriminant() uint32    { return DeviceMsgRotationData }

func (DeviceHeartbeat) Direction() Direction       { return DeviceOrigin }
func (DeviceRotation) Direction() Direction        { return DeviceOrigin }
func (DeviceGyroscope) Direction() Direction       { return DeviceOrigin }
func (DeviceHandshake) Direction() Direction       { return DeviceOrigin }
func (DeviceAccelerometer) Direction() Direction   { return DeviceOrigin }
func (DeviceMagnetometer) Direction() Direction    { return DeviceOrigin }
func (DeviceConfigReport) Direction() Direction    { return DeviceOrigin }
func (DeviceRawMagnetometer) Direction() Direction { return DeviceOrigin }
func (DevicePingPong) Direction() Direction        { return DeviceOrigin }
func (DeviceResetReason) Direction() Direction     { return DeviceOrigin }
func (DeviceSensorInfo) Direction() Direction      { return DeviceOrigin }
func (DeviceRotationData) Direction() Direction    { return DeviceOrigin }

func (DeviceHeartbeat) devicePacket()       {}
func (DeviceRotation) devicePacket()        {}
func (DeviceGyroscope) devicePacket()       {}
func (DeviceHandshake) devicePacket()       {}
func (DeviceAccelerometer) devicePacket()   {}
func (DeviceMagnetometer) devicePacket()    {}
func (DeviceConfigReport) devicePacket()    {}
func (DeviceRawMagnetometer) devicePacket() {}
func (DevicePingPong) devicePacket()        {}
func (DeviceResetReason) devicePacket()     {}
func (DeviceSensorInfo) devicePacket()      {}
func (DeviceRotationData) devicePacket()    {}

func (p DeviceHeartbeat) appendPayload(dst []byte) ([]byte, error) {
	return bigEndian.AppendUint64(dst, p.Value), nil
}

func (p DeviceRotation) appendPayload(dst []byte) ([]byte, error) {
	return appendQuaternion(dst, bigEndian, p.Rotation), nil
}

func (DeviceGyroscope) appendPayload(dst []byte) ([]byte, error) { return dst, nil }

func (p DeviceHandshake) appendPayload(dst []byte) ([]byte, error) {
	if len(p.Version) > maxVersionLen {
		return nil, &LengthPrefixOverflowError{Field: "version", Len: len(p.Version), Max: maxVersionLen}
	}
	dst = bigEndian.AppendUint32(dst, p.Board)
	dst = bigEndian.AppendUint32(dst, p.IMU)
	dst = bigEndian.AppendUint32(dst, p.MCU)
	for range 3 {
		dst = bigEndian.AppendUint32(dst, 0)
	}
	dst = bigEndian.AppendUint32(dst, p.BuildNumber)
	dst = append(dst, byte(len(p.Version)))
	return append(dst, p.Version...), nil
}

func (p DeviceAccelerometer) appendPayload(dst []byte) ([]byte, error) {
	return appendVector(dst, bigEndian, p.Acceleration), nil
}

func (p DeviceMagnetometer) appendPayload(dst []byte) ([]byte, error) {
	return appendVector(dst, bigEndian, p.Field), nil
}

func (p DeviceConfigReport) appendPayload(dst []byte) ([]byte, error) {
	return appendConfig(dst, littleEndian, p.Config), nil
}

func (p DeviceRawMagnetometer) appendPayload(dst []byte) ([]byte, error) {
	return appendVector(dst, bigEndian, p.Field), nil
}

func (p DevicePingPong) appendPayload(dst []byte) ([]byte, error) {
	return append(dst, p.Data...), nil
}

func (DeviceResetReason) appendPayload(dst []byte) ([]byte, error) { return dst, nil }

func (p DeviceSensorInfo) appendPayload(dst []byte) ([]byte, error) {
	return append(dst, p.SensorID, p.Status), nil
}

func (p DeviceRotationData) appendPayload(dst []byte) ([]byte, error) {
	dst = append(dst, p.SensorID, p.DataType)
	dst = appendQuaternion(dst, bigEndian, p.Rotation)
	return append(dst, p.Accuracy), nil
}

// decodeDevicePayload maps a discriminant onto the device taxonomy.
func decodeDevicePayload(disc uint32, r *reader) (DevicePacket, error) {
	switch disc {
	case DeviceMsgHeartbeat:
		v, err := r.u64(bigEndian)
		if err != nil {
			return nil, err
		}
		return DeviceHeartbeat{Value: v}, nil
	case DeviceMsgRotation:
		q, err := r.quaternion(bigEndian)
		if err != nil {
			return nil, err
		}
		return DeviceRotation{Rotation: q}, nil
	case DeviceMsgGyroscope:
		return DeviceGyroscope{}, nil
	case DeviceMsgHandshake:
		return decodeHandshake(r)
	case DeviceMsgAccelerometer:
		v, err := r.vector(bigEndian)
		if err != nil {
			return nil, err
		}
		return DeviceAccelerometer{Acceleration: v}, nil
	case DeviceMsgMagnetometer:
		v, err := r.vector(bigEndian)
		if err != nil {
			return nil, err
		}
		return DeviceMagnetometer{Field: v}, nil
	case DeviceMsgConfig:
		cfg, err := decodeConfig(r, littleEndian)
		if err != nil {
			return nil, err
		}
		return DeviceConfigReport{Config: cfg}, nil
	case DeviceMsgRawMagnetometer:
		v, err := r.vector(bigEndian)
		if err != nil {
			return nil, err
		}
		return DeviceRawMagnetometer{Field: v}, nil
	case DeviceMsgPingPong:
		return DevicePingPong{Data: r.rest()}, nil
	case DeviceMsgResetReason:
		return DeviceResetReason{}, nil
	case DeviceMsgSensorInfo:
		b, err := r.take(2)
		if err != nil {
			return nil, err
		}
		return DeviceSensorInfo{SensorID: b[0], Status: b[1]}, nil
	case DeviceMsgRotationData:
		return decodeRotationData(r)
	default:
		return nil, &UnknownDiscriminantError{Direction: DeviceOrigin, Value: disc}
	}
}

func decodeHandshake(r *reader) (DeviceHandshake, error) {
	var p DeviceHandshake
	var err error
	if p.Board, err = r.u32(bigEndian); err != nil {
		return DeviceHandshake{}, err
	}
	if p.IMU, err = r.u32(bigEndian); err != nil {
		return DeviceHandshake{}, err
	}
	if p.MCU, err = r.u32(bigEndian); err != nil {
		return DeviceHandshake{}, err
	}
	if _, err = r.take(12); err != nil {
		return DeviceHandshake{}, err
	}
	if p.BuildNumber, err = r.u32(bigEndian); err != nil {
		return DeviceHandshake{}, err
	}
	n, err := r.u8()
	if err != nil {
		return DeviceHandshake{}, err
	}
	if p.Version, err = r.bytes(int(n)); err != nil {
		return DeviceHandshake{}, err
	}
	return p, nil
}

func decodeRotationData(r *reader) (DeviceRotationData, error) {
	head, err := r.take(2)
	if err != nil {
		return DeviceRotationData{}, err
	}
	q, err := r.quaternion(bigEndian)
	if err != nil {
		return DeviceRotationData{}, err
	}
	accuracy, err := r.u8()
	if err != nil {
		return DeviceRotationData{}, err
	}
	return DeviceRotationData{
		SensorID: head[0],
		DataType: head[1],
		Rotation: q,
		Accuracy: accuracy,
	}, nil
}
