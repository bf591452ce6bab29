package models

import "time"

// PacketStatus 无人机拾取时广播的固定状态
const PacketStatus = "SOS – Drone Pickup Required"

// Motion 设备运动状态
type Motion string

const (
	MotionMoving Motion = "moving"
	MotionStill  Motion = "still"
)

// SOSPacket 无人机求救数据包，每次发射信号时生成
type SOSPacket struct {
	ID        string    `json:"id"`
	Latitude  *float64  `json:"latitude,omitempty"`  // 未共享位置时为空
	Longitude *float64  `json:"longitude,omitempty"` // 未共享位置时为空
	Timestamp time.Time `json:"timestamp"`
	Battery   *int      `json:"battery,omitempty"` // 百分比
	Motion    Motion    `json:"motion"`
	Status    string    `json:"status"`
	Sequence  int       `json:"sequenceNumber"`
}

// HasLocation reports whether the packet carries coordinates.
func (p SOSPacket) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
