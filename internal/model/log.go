package model

// Log is an emitted event row. Topics are positional; missing positions are nil.
type Log struct {
	BlockNumber uint64  `db:"block_number" json:"block_number"`
	TxHash      string  `db:"tx_hash" json:"tx_hash"`
	LogIndex    uint64  `db:"log_index" json:"log_index"`
	Address     string  `db:"address" json:"address"`
	Topic0      *string `db:"topic0" json:"topic0,omitempty"`
	Topic1      *string `db:"topic1" json:"topic1,omitempty"`
	Topic2      *string `db:"topic2" json:"topic2,omitempty"`
	Topic3      *string `db:"topic3" json:"topic3,omitempty"`
	Data        []byte  `db:"data" json:"data"`
}

// SetTopics assigns up to four topics positionally. Extra topics are ignored.
func (l *Log) SetTopics(topics []string) {
	slots := []**string{&l.Topic0, &l.Topic1, &l.Topic2, &l.Topic3}
	for i, slot := range slots {
		if i >= len(topics) {
			*slot = nil
			continue
		}
		topic := topics[i]
		*slot = &topic
	}
}

// Topics returns the non-nil topics in positional order.
func (l Log) Topics() []string {
	out := make([]string, 0, 4)
	for _, topic := range []*string{l.Topic0, l.Topic1, l.Topic2, l.Topic3} {
		if topic == nil {
			break
		}
		out = append(out, *topic)
	}
	return out
}
