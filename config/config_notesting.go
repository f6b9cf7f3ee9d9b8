//go:build !testing

package config

const isTesting = false

func testingConfig() Config {
	panic("testing config requested without the testing build tag")
}
