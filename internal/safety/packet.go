package safety

import (
	"sync"

	"GuardianLink/internal/emitter"
	"GuardianLink/internal/models"
	"GuardianLink/pkg/logger"

	"go.uber.org/zap"
)

// DefaultDeviceID 原型设备编号
const DefaultDeviceID = "device-prototype-123"

// PacketLogger builds one SOSPacket per emission and hands it to its sinks.
type PacketLogger struct {
	mu       sync.RWMutex
	tel      Telemetry
	deviceID string
	sinks    []func(models.SOSPacket)
	last     *models.SOSPacket
}

func NewPacketLogger(tel Telemetry, deviceID string) *PacketLogger {
	if tel == nil {
		tel = MockTelemetry{}
	}
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}
	return &PacketLogger{tel: tel, deviceID: deviceID}
}

// OnPacket registers a sink. Sinks run on the emitter goroutine and must
// not block.
func (p *PacketLogger) OnPacket(fn func(models.SOSPacket)) {
	p.mu.Lock()
	p.sinks = append(p.sinks, fn)
	p.mu.Unlock()
}

// Last returns the most recent packet.
func (p *PacketLogger) Last() (models.SOSPacket, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return models.SOSPacket{}, false
	}
	return *p.last, true
}

// Observe is an emitter.Observer.
func (p *PacketLogger) Observe(ev emitter.Event) {
	if ev.Kind != emitter.EventEmitted || ev.Emission == nil {
		return
	}
	r := p.tel.Read(ev.Emission.ShareLocation)
	pkt := models.SOSPacket{
		ID:        p.deviceID,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timestamp: ev.Emission.Timestamp,
		Battery:   r.Battery,
		Motion:    r.Motion,
		Status:    models.PacketStatus,
		Sequence:  ev.Emission.Sequence,
	}
	fields := []zap.Field{
		zap.String("id", pkt.ID),
		zap.Int("sequence", pkt.Sequence),
		zap.String("motion", string(pkt.Motion)),
		zap.Bool("located", pkt.HasLocation()),
	}
	if pkt.HasLocation() {
		fields = append(fields, zap.Float64("lat", *pkt.Latitude), zap.Float64("lng", *pkt.Longitude))
	}
	logger.Info("broadcasting sos packet", fields...)

	p.mu.Lock()
	p.last = &pkt
	sinks := append([]func(models.SOSPacket){}, p.sinks...)
	p.mu.Unlock()
	for _, fn := range sinks {
		fn(pkt)
	}
}
