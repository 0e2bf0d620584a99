package domain

// Builder is the only way to populate a Dataset. Once Build has been called the
// builder is spent and further calls are ignored, so the returned Dataset never changes.
type Builder struct {
	ds *Dataset
}

func NewBuilder() *Builder {
	return &Builder{
		ds: &Dataset{devices: map[string]*Device{}},
	}
}

// DeclareDevice ensures a device exists. Declaring the same name twice is a no-op.
func (b *Builder) DeclareDevice(name string) {
	if b.ds == nil {
		return
	}
	b.ds.ensureDevice(name)
}

// DeclareChannel registers a channel under an already declared device. A repeated
// declaration overwrites the descriptor and keeps the samples collected so far.
func (b *Builder) DeclareChannel(device string, id int, c ChannelDescriptor) bool {
	if b.ds == nil {
		return false
	}

	d, ok := b.ds.devices[device]
	if !ok {
		return false
	}

	d.declareChannel(id, c)
	return true
}

func (b *Builder) HasChannel(device string, id int) bool {
	if b.ds == nil {
		return false
	}

	d, ok := b.ds.devices[device]
	if !ok {
		return false
	}

	_, ok = d.channels[id]
	return ok
}

// Append adds samples to a declared channel and reports false if the device or channel is unknown.
func (b *Builder) Append(device string, id int, samples ...Sample) bool {
	if b.ds == nil {
		return false
	}

	d, ok := b.ds.devices[device]
	if !ok {
		return false
	}

	return d.append(id, samples...)
}

func (b *Builder) Build() *Dataset {
	ds := b.ds
	b.ds = nil
	return ds
}
