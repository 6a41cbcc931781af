package hashing

import (
	"crypto/sha256"
	"math/big"
	"testing"
)

func TestBucket_KnownVectors(t *testing.T) {
	t.Parallel()

	// Values of int(hashlib.sha256(id.encode()).hexdigest(), 16) % 100.
	cases := map[string]int{
		"":                         49,
		"a":                        99,
		"abc":                      65,
		"clip-01":                  14,
		"clip-12":                  5,
		"spk1":                     3,
		"snd4":                     1,
		"hey_firefox_0001":         77,
		"common_voice_en_1":        19,
		"common_voice_en_19664034": 49,
	}
	for identifier, expected := range cases {
		if bucket := Bucket(identifier); bucket != expected {
			t.Fatalf("expected bucket %d for %q, got %d", expected, identifier, bucket)
		}
	}
}

func TestBucket_IsStableAcrossCalls(t *testing.T) {
	t.Parallel()

	for _, identifier := range []string{"sound-42", "speaker-7", "common_voice_en_864"} {
		first := Bucket(identifier)
		for attempt := 0; attempt < 10; attempt++ {
			if again := Bucket(identifier); again != first {
				t.Fatalf("expected stable bucket %d for %q, got %d", first, identifier, again)
			}
		}
	}
}

func TestBucket_MatchesBigIntReduction(t *testing.T) {
	t.Parallel()

	hundred := big.NewInt(Buckets)
	for index := 0; index < 500; index++ {
		identifier := "common_voice_en_" + big.NewInt(int64(index)).String()
		digest := sha256.Sum256([]byte(identifier))
		expected := new(big.Int).Mod(new(big.Int).SetBytes(digest[:]), hundred).Int64()
		bucket := Bucket(identifier)
		if int64(bucket) != expected {
			t.Fatalf("expected %d for %q, got %d", expected, identifier, bucket)
		}
		if bucket < 0 || bucket >= Buckets {
			t.Fatalf("bucket %d out of range for %q", bucket, identifier)
		}
	}
}
