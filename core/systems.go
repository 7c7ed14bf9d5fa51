package core

import (
	"github.com/signalsfoundry/radiomobile/model"
	"github.com/signalsfoundry/radiomobile/orderedmap"
)

const sectionSystems = "systems"

var systemColumns = []string{"Name", "Pwr Tx", "Loss", "Loss (+)", "Rx thr.", "Ant. G.", "Ant. Type"}

func parseSystems(lines []string) (*orderedmap.Map[string, model.System], error) {
	records, err := ParseTable(lines, systemColumns)
	if err != nil {
		return nil, inSection(err, sectionSystems)
	}

	systems := orderedmap.New[string, model.System]()
	for _, rec := range records {
		name := rec["name"]
		if name == "" {
			return nil, formatErrorf(sectionSystems, "", "system without name")
		}
		if systems.Has(name) {
			return nil, formatErrorf(sectionSystems, name, "duplicate system")
		}
		systems.Set(name, model.System{
			Name:     name,
			PwrTx:    rec["pwr_tx"],
			Loss:     rec["loss"],
			LossPlus: rec["loss_(+)"],
			RxThr:    rec["rx_thr"],
			AntG:     rec["ant_g"],
			AntType:  rec["ant_type"],
		})
	}
	return systems, nil
}
