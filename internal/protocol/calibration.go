package protocol

// ReverseVector returns v with its elements in reverse order.
func ReverseVector(v [3]float32) [3]float32 {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
	return v
}

// ReverseMatrix reverses the row order of m and the elements of each row.
func ReverseMatrix(m [3][3]float32) [3][3]float32 {
	for i, j := 0, len(m)-1; i < j; i, j = i+1, j-1 {
		m[i], m[j] = m[j], m[i]
	}
	for i := range m {
		m[i] = ReverseVector(m[i])
	}
	return m
}

// decodeConfig reads a configuration block in byte order o.
func decodeConfig(r *reader, o byteOrder) (DeviceConfig, error) {
	var cfg DeviceConfig
	cal, err := decodeCalibration(r, o)
	if err != nil {
		return DeviceConfig{}, err
	}
	cfg.Calibration = cal
	if cfg.DeviceID, err = r.u32(o); err != nil {
		return DeviceConfig{}, err
	}
	if cfg.DeviceMode, err = r.u32(o); err != nil {
		return DeviceConfig{}, err
	}
	return cfg, nil
}

func decodeCalibration(r *reader, o byteOrder) (Calibration, error) {
	var cal Calibration

	gyroBias, err := r.vec3(o)
	if err != nil {
		return Calibration{}, err
	}
	magCorrection, err := r.mat3(o)
	if err != nil {
		return Calibration{}, err
	}
	magBias, err := r.vec3(o)
	if err != nil {
		return Calibration{}, err
	}
	accelCorrection, err := r.mat3(o)
	if err != nil {
		return Calibration{}, err
	}
	accelBias, err := r.vec3(o)
	if err != nil {
		return Calibration{}, err
	}

	cal.GyroBias = ReverseVector(gyroBias)
	cal.MagCorrection = ReverseMatrix(magCorrection)
	cal.MagBias = ReverseVector(magBias)
	cal.AccelCorrection = ReverseMatrix(accelCorrection)
	cal.AccelBias = ReverseVector(accelBias)
	return cal, nil
}

func appendConfig(dst []byte, o byteOrder, cfg DeviceConfig) []byte {
	cal := cfg.Calibration
	dst = appendVec3(dst, o, ReverseVector(cal.GyroBias))
	dst = appendMat3(dst, o, ReverseMatrix(cal.MagCorrection))
	dst = appendVec3(dst, o, ReverseVector(cal.MagBias))
	dst = appendMat3(dst, o, ReverseMatrix(cal.AccelCorrection))
	dst = appendVec3(dst, o, ReverseVector(cal.AccelBias))
	dst = o.AppendUint32(dst, cfg.DeviceID)
	return o.AppendUint32(dst, cfg.DeviceMode)
}
