package kinematics

import "fmt"

// NumBranches is the number of IK solution branches for an OPW arm: three
// independent binary choices (shoulder, elbow, wrist).
const NumBranches = 8

// BranchCode identifies one of the 8 IK branches. Bit layout:
// bit 2 shoulder (0 front / 1 back), bit 1 elbow (0 up / 1 down),
// bit 0 wrist (0 no-flip / 1 flip).
type BranchCode uint8

// ShoulderBack reports whether the branch uses the flipped base rotation.
func (b BranchCode) ShoulderBack() bool { return b&4 != 0 }

// ElbowDown reports whether the branch uses the elbow-down triangle solution.
func (b BranchCode) ElbowDown() bool { return b&2 != 0 }

// WristFlip reports whether the branch uses the flipped wrist triple.
func (b BranchCode) WristFlip() bool { return b&1 != 0 }

func (b BranchCode) String() string {
	shoulder := "front"
	if b.ShoulderBack() {
		shoulder = "back"
	}
	elbow := "up"
	if b.ElbowDown() {
		elbow = "down"
	}
	wrist := "noflip"
	if b.WristFlip() {
		wrist = "flip"
	}
	return fmt.Sprintf("%d(%s/%s/%s)", uint8(b), shoulder, elbow, wrist)
}

// Branch is one candidate IK solution. A branch with Reachable == false has
// no real geometric solution; Reason says which domain check failed.
type Branch struct {
	Code       BranchCode
	Canonical  JointAngles // canonical OPW convention, degrees
	Controller JointAngles // controller convention, degrees
	Reachable  bool
	Reason     string
}

// Solution is the fixed set of all 8 branch candidates for one target pose.
type Solution [NumBranches]Branch

// ReachableCount returns the number of branches with a real solution.
func (s *Solution) ReachableCount() int {
	n := 0
	for i := range s {
		if s[i].Reachable {
			n++
		}
	}
	return n
}

// markAllUnreachable tags every branch with the same domain failure.
func (s *Solution) markAllUnreachable(reason string) {
	for i := range s {
		s[i].Reachable = false
		s[i].Reason = reason
	}
}
