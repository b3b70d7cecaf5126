package pairing_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/demoworks/rota/internal/domain/pairing"
)

func TestNumber(t *testing.T) {
	convey.Convey("Given event names carrying pairing numbers", t, func() {
		convey.Convey("Then a hash-prefixed number is extracted", func() {
			convey.So(pairing.Number("Acme Juice Demo #4512"), convey.ShouldEqual, "4512")
		})

		convey.Convey("Then a bare number is extracted", func() {
			convey.So(pairing.Number("Supervisor Visit 4512"), convey.ShouldEqual, "4512")
		})

		convey.Convey("Then short digit groups are ignored", func() {
			convey.So(pairing.Number("Aisle 12 Demo"), convey.ShouldEqual, "")
		})

		convey.Convey("Then a name without digits yields nothing", func() {
			convey.So(pairing.Number("Weekly Kiosk Refresh"), convey.ShouldEqual, "")
		})
	})
}

func TestBrand(t *testing.T) {
	convey.Convey("Given event names carrying brand tokens", t, func() {
		convey.Convey("Then the first meaningful token is the brand", func() {
			convey.So(pairing.Brand("SunnySip Juice Demo #311"), convey.ShouldEqual, "sunnysip")
		})

		convey.Convey("Then stopwords and digit groups are skipped", func() {
			convey.So(pairing.Brand("Demo 4415 GreenLeaf Sampling"), convey.ShouldEqual, "greenleaf")
		})

		convey.Convey("Then a name of only stopwords has no brand", func() {
			convey.So(pairing.Brand("Demo Visit 900"), convey.ShouldEqual, "")
		})
	})
}

func TestMatch(t *testing.T) {
	convey.Convey("Given a set of names sharing pairing numbers", t, func() {
		names := []string{
			"Acme Demo #300",
			"Supervisor Visit #300",
			"Juicer Production 755",
			"Juicer Survey 755",
			"Unpaired Kiosk",
		}

		groups := pairing.Match(names)

		convey.Convey("Then indexes group by shared number", func() {
			convey.So(groups["300"], convey.ShouldResemble, []int{0, 1})
			convey.So(groups["755"], convey.ShouldResemble, []int{2, 3})
		})

		convey.Convey("Then names without numbers join no group", func() {
			convey.So(len(groups), convey.ShouldEqual, 2)
		})
	})
}
