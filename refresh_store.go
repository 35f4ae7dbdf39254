package signet

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signet-auth/signet/internal"
)

const refreshRecordVersion1 = 1

// refreshRecord is the stored half of a refresh token: the record ID is
// the key, and only the hash of the token's secret half is kept.
type refreshRecord struct {
	UserID     string
	SecretHash [32]byte
	ExpiresAt  int64
}

type refreshStore struct {
	redis  *redis.Client
	prefix string
}

func newRefreshStore(redisClient *redis.Client, prefix string) *refreshStore {
	return &refreshStore{redis: redisClient, prefix: prefix}
}

func (s *refreshStore) key(id internal.RefreshID) string {
	return s.prefix + ":rfs:" + id.String()
}

func (s *refreshStore) Save(ctx context.Context, id internal.RefreshID, record *refreshRecord, ttl time.Duration) error {
	encoded, err := encodeRefreshRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(id), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}
	return nil
}

// Consume validates the secret hash and deletes the record in one
// conditional transaction. Used for rotation: a rotated token can never
// be redeemed twice.
func (s *refreshStore) Consume(ctx context.Context, id internal.RefreshID, providedHash [32]byte) (*refreshRecord, error) {
	const maxRetries = 4
	key := s.key(id)

	for i := 0; i < maxRetries; i++ {
		var consumed *refreshRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeRefreshRecord(data)
			if err != nil {
				return err
			}

			if time.Now().Unix() >= record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return ErrRefreshInvalid
			}

			if subtle.ConstantTimeCompare(record.SecretHash[:], providedHash[:]) != 1 {
				return ErrRefreshInvalid
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
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
			if errors.Is(err, redis.Nil) || errors.Is(err, ErrRefreshInvalid) {
				return nil, ErrRefreshInvalid
			}
			return nil, fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
		}
		return consumed, nil
	}

	return nil, ErrRefreshInvalid
}

// Delete removes the record if present. Deleting an unknown record is
// not an error, which makes revocation idempotent.
func (s *refreshStore) Delete(ctx context.Context, id internal.RefreshID) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}
	return nil
}

func encodeRefreshRecord(record *refreshRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(refreshRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.SecretHash[:])

	if len(record.UserID) > 65535 {
		return nil, errors.New("refresh owner id length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)

	return buf.Bytes(), nil
}

func decodeRefreshRecord(data []byte) (*refreshRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != refreshRecordVersion1 {
		return nil, errors.New("invalid refresh record version")
	}

	record := &refreshRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return nil, err
	}

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
