package signet

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const ticketRecordVersion1 = 1

// ticketRecord is what the store keeps against a ticket value. The value
// itself is the key; the record carries the owner and the expiry.
type ticketRecord struct {
	Kind      TicketKind
	UserID    string
	ExpiresAt int64
}

// ticketStore is the durable value→record mapping for single-use tickets.
// Two keys exist per live ticket: the value key holding the record, and an
// owner key (kind+user) holding the current value so that issuing a new
// ticket of the same kind replaces the previous one.
type ticketStore struct {
	redis  *redis.Client
	prefix string
}

func newTicketStore(redisClient *redis.Client, prefix string) *ticketStore {
	return &ticketStore{redis: redisClient, prefix: prefix}
}

func (s *ticketStore) valueKey(value string) string {
	return s.prefix + ":v:" + value
}

func (s *ticketStore) ownerKey(kind TicketKind, userID string) string {
	return s.prefix + ":o:" + string(kind) + ":" + userID
}

// Save persists the record and retires any prior live ticket of the same
// kind for the owner. At most one live ticket per (kind, owner).
func (s *ticketStore) Save(ctx context.Context, value string, record *ticketRecord, ttl time.Duration) error {
	encoded, err := encodeTicketRecord(record)
	if err != nil {
		return err
	}

	ownerKey := s.ownerKey(record.Kind, record.UserID)
	prior, err := s.redis.Get(ctx, ownerKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if prior != "" && prior != value {
			pipe.Del(ctx, s.valueKey(prior))
		}
		pipe.Set(ctx, s.valueKey(value), encoded, ttl)
		pipe.Set(ctx, ownerKey, value, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}
	return nil
}

// Get returns the live record for a value without consuming it. Expired
// records are deleted on read and reported as expired.
func (s *ticketStore) Get(ctx context.Context, value string) (*ticketRecord, error) {
	data, err := s.redis.Get(ctx, s.valueKey(value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}

	record, err := decodeTicketRecord(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() >= record.ExpiresAt {
		_, _ = s.redis.Del(ctx, s.valueKey(value), s.ownerKey(record.Kind, record.UserID)).Result()
		return nil, ErrTicketExpired
	}
	return record, nil
}

// Consume atomically verifies and clears the ticket. Exactly one of two
// concurrent callers succeeds; the loser observes ErrTicketNotFound or
// ErrTicketConsumed.
func (s *ticketStore) Consume(ctx context.Context, value string) (*ticketRecord, error) {
	const maxRetries = 4
	key := s.valueKey(value)

	for i := 0; i < maxRetries; i++ {
		var consumed *ticketRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeTicketRecord(data)
			if err != nil {
				return err
			}
			ownerKey := s.ownerKey(record.Kind, record.UserID)

			if time.Now().Unix() >= record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key, ownerKey)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrTicketExpired
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key, ownerKey)
				return nil
			})
			if err != nil {
				return err
			}
			consumed = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, ErrTicketNotFound
			}
			if errors.Is(err, ErrTicketExpired) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
		}
		return consumed, nil
	}

	return nil, ErrTicketConsumed
}

func encodeTicketRecord(record *ticketRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(ticketRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	kind := []byte(record.Kind)
	if len(kind) > 255 {
		return nil, errors.New("ticket kind length exceeded")
	}
	buf.WriteByte(byte(len(kind)))
	buf.Write(kind)

	if len(record.UserID) > 65535 {
		return nil, errors.New("ticket owner id length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)

	return buf.Bytes(), nil
}

func decodeTicketRecord(data []byte) (*ticketRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != ticketRecordVersion1 {
		return nil, errors.New("invalid ticket record version")
	}

	record := &ticketRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	kindLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	kind := make([]byte, kindLen)
	if _, err := io.ReadFull(reader, kind); err != nil {
		return nil, err
	}
	record.Kind = TicketKind(kind)

	var userLen uint16
	if err := binary.Read(reader, binary.BigEndian, &userLen); err != nil {
		return nil, err
	}
	user := make([]byte, userLen)
	if _, err := io.ReadFull(reader, user); err != nil {
		return nil, err
	}
	record.UserID = string(user)

	return record, nil
}
