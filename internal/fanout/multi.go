package fanout

// MultiPublisher fans a publish out to several publishers. The first error is
// returned after every publisher has been attempted.
type MultiPublisher struct {
	publishers []Publisher
}

// NewMultiPublisher 组合多个Publisher（如本地Hub + Redis）
func NewMultiPublisher(pubs ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: pubs}
}

func (m *MultiPublisher) Publish(channel string, payload interface{}) error {
	var first error
	for _, p := range m.publishers {
		if err := p.Publish(channel, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}
