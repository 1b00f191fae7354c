package utils

import (
	"testing"
)

func TestRemoveRegexp(t *testing.T) {
	expect(t, RemoveRegexp("Purifier Location", "purifier"), "Location")
	expect(t, RemoveRegexp("purifier location", "purifier"), "location")
	expect(t, RemoveRegexp("location purifier", "purifier"), "location")
	expect(t, RemoveRegexp("Location Purifier", "purifier"), "Location")
	expect(t, RemoveRegexp("Location Purifier", ""), "Location Purifier")
	expect(t, RemoveRegexp("Location Purifier", "(purifier|fan)"), "Location")
	expect(t, RemoveRegexp("Location Fan", "(purifier|fan)"), "Location")
	expect(t, RemoveRegexp("purifier_location", "(purifier|fan)_"), "location")
	expect(t, RemoveRegexp("fan_location", "(purifier|fan)_"), "location")
}

func TestNormalizeForTopicName(t *testing.T) {
	expect(t, NormalizeForTopicName("test"), "test")
	expect(t, NormalizeForTopicName("test_test-test"), "test_test-test")
	expect(t, NormalizeForTopicName("TeSt"), "TeSt")
	expect(t, NormalizeForTopicName("test test"), "test_test")
	expect(t, NormalizeForTopicName("test/test"), "test_test")
	expect(t, NormalizeForTopicName("purifier.local"), "purifier_local")
	expect(t, NormalizeForTopicName("t$`^'st"), "tst")
	expect(t, NormalizeForTopicName("test123"), "test123")
}

func expect(t *testing.T, result string, expect string) {
	if expect != result {
		t.Errorf("Expected='%s' but got '%s'", expect, result)
	}
}
