package domain

import (
	"slices"
)

type ChannelDescriptor struct {
	Name string  `json:"name" yaml:"name"`
	Unit *string `json:"unit" yaml:"unit"`
}

// UnitOrEmpty returns the declared unit, or an empty string when the channel was declared without one.
func (c ChannelDescriptor) UnitOrEmpty() string {
	if c.Unit == nil {
		return ""
	}
	return *c.Unit
}

type Sample struct {
	Timestamp int64   `json:"timestamp" yaml:"timestamp"`
	Value     float64 `json:"value" yaml:"value"`
}

type Channel struct {
	ID         int               `json:"id" yaml:"id"`
	Descriptor ChannelDescriptor `json:"descriptor" yaml:"descriptor"`
}

type Device struct {
	name       string
	channelIDs []int
	channels   map[int]ChannelDescriptor
	data       map[int][]Sample
}

func newDevice(name string) *Device {
	return &Device{
		name:     name,
		channels: map[int]ChannelDescriptor{},
		data:     map[int][]Sample{},
	}
}

func (d *Device) Name() string {
	return d.name
}

// Channels returns the declared channels in declaration order.
func (d *Device) Channels() []Channel {
	channels := make([]Channel, 0, len(d.channelIDs))
	for _, id := range d.channelIDs {
		channels = append(channels, Channel{ID: id, Descriptor: d.channels[id]})
	}
	return channels
}

func (d *Device) Channel(id int) (ChannelDescriptor, bool) {
	c, ok := d.channels[id]
	return c, ok
}

// Series returns a copy of the samples decoded for a channel, in log order.
func (d *Device) Series(id int) ([]Sample, bool) {
	s, ok := d.data[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(s), true
}

func (d *Device) SampleCount(id int) int {
	return len(d.data[id])
}

func (d *Device) declareChannel(id int, c ChannelDescriptor) {
	if _, ok := d.channels[id]; !ok {
		d.channelIDs = append(d.channelIDs, id)
	}
	d.channels[id] = c
	if _, ok := d.data[id]; !ok {
		d.data[id] = []Sample{}
	}
}

func (d *Device) append(id int, samples ...Sample) bool {
	s, ok := d.data[id]
	if !ok {
		return false
	}
	d.data[id] = append(s, samples...)
	return true
}

type Dataset struct {
	names   []string
	devices map[string]*Device
}

// DeviceNames returns device names in the order they were first declared.
func (ds *Dataset) DeviceNames() []string {
	return slices.Clone(ds.names)
}

func (ds *Dataset) Device(name string) (*Device, bool) {
	d, ok := ds.devices[name]
	return d, ok
}

func (ds *Dataset) Devices() []*Device {
	devices := make([]*Device, 0, len(ds.names))
	for _, n := range ds.names {
		devices = append(devices, ds.devices[n])
	}
	return devices
}

func (ds *Dataset) Series(device string, channel int) ([]Sample, bool) {
	d, ok := ds.devices[device]
	if !ok {
		return nil, false
	}
	return d.Series(channel)
}

func (ds *Dataset) ensureDevice(name string) *Device {
	if d, ok := ds.devices[name]; ok {
		return d
	}

	d := newDevice(name)
	ds.devices[name] = d
	ds.names = append(ds.names, name)

	return d
}
