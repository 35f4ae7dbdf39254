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
)

const otpRecordVersion1 = 1

// otpRecord stores an SMS one-time code keyed by phone number. Only the
// SHA-256 of the code touches storage.
type otpRecord struct {
	UserID    string
	CodeHash  [32]byte
	ExpiresAt int64
}

type otpStore struct {
	redis  *redis.Client
	prefix string
}

func newOtpStore(redisClient *redis.Client, prefix string) *otpStore {
	return &otpStore{redis: redisClient, prefix: prefix}
}

func (s *otpStore) key(phoneNumber string) string {
	return s.prefix + ":otp:" + phoneNumber
}

// Save persists the record, replacing any previous code for the phone
// number. Requesting a fresh code invalidates the old one.
func (s *otpStore) Save(ctx context.Context, phoneNumber string, record *otpRecord, ttl time.Duration) error {
	encoded, err := encodeOtpRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(phoneNumber), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}
	return nil
}

// Consume compares the submitted code hash in constant time and deletes
// the record only on a match, in one conditional transaction. A wrong
// code leaves the record in place; a correct code wins at most once.
func (s *otpStore) Consume(ctx context.Context, phoneNumber string, providedHash [32]byte) (*otpRecord, error) {
	const maxRetries = 4
	key := s.key(phoneNumber)

	for i := 0; i < maxRetries; i++ {
		var consumed *otpRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeOtpRecord(data)
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
				return ErrTicketExpired
			}

			if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
				return ErrOTPInvalid
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
			if errors.Is(err, redis.Nil) {
				return nil, ErrTicketNotFound
			}
			if errors.Is(err, ErrTicketExpired) || errors.Is(err, ErrOTPInvalid) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
		}
		return consumed, nil
	}

	return nil, ErrTicketConsumed
}

func encodeOtpRecord(record *otpRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(otpRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.CodeHash[:])

	if len(record.UserID) > 65535 {
		return nil, errors.New("otp owner id length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)

	return buf.Bytes(), nil
}

func decodeOtpRecord(data []byte) (*otpRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != otpRecordVersion1 {
		return nil, errors.New("invalid otp record version")
	}

	record := &otpRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
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
