package sensor

func NewHostWithPowerSupply(dir string) *Host {
	return &Host{powerSupplyDir: dir}
}
